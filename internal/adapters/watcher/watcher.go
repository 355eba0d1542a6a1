package watcher

import (
	"context"
	"iter"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 16

// Watcher implements plan file watching using fsnotify.
// The parent directory is watched so that editors which replace the file
// through a rename are still observed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	target    string
	events    chan ports.WatchEvent
	errors    func(error)
}

// NewWatcher creates a new file system watcher. onError receives errors
// reported by the operating system while watching; it may be nil.
func NewWatcher(onError func(error)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{
		fsWatcher: w,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		errors:    onError,
	}, nil
}

// Start begins watching the file at path.
func (w *Watcher) Start(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidInput, err.Error()), "path", path)
	}
	w.target = abs

	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch plan directory"), "path", filepath.Dir(abs))
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}
			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.errors(err)
		}
	}
}

func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}
