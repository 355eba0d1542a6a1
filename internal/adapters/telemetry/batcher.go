// Package telemetry adapts OpenTelemetry tracing to the optimizer's tracer port.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the buffer size (4KB) used when none is given.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the flush interval used when none is given.
	DefaultTimeLimit = 50 * time.Millisecond
)

var errBatcherClosed = errors.New("batch processor is closed")

// BatchProcessor buffers span log output until a size or time limit is
// reached and hands each batch to onFlush. It is safe for concurrent use.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor starts a BatchProcessor. Close stops its background flusher.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		ticker:    time.NewTicker(timeLimit),
		stopCh:    make(chan struct{}),
	}
	go bp.run()
	return bp
}

// Write appends p to the buffer, flushing once sizeLimit is reached.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, errBatcherClosed
	}

	n, _ := bp.buffer.Write(p)
	if bp.buffer.Len() >= bp.sizeLimit {
		bp.flushLocked()
		bp.ticker.Reset(bp.timeLimit)
	}
	return n, nil
}

// Flush hands any buffered data to the callback.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked()
}

// Close stops the background flusher after a final flush. It is idempotent.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	close(bp.stopCh)
	bp.flushLocked()
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held.
func (bp *BatchProcessor) flushLocked() {
	if bp.buffer.Len() == 0 {
		return
	}
	data := bytes.Clone(bp.buffer.Bytes())
	bp.buffer.Reset()
	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}
