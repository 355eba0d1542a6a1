package telemetry

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// StrategyAttribute marks spans that time a single strategy variant.
const StrategyAttribute = "pareto.strategy"

// Timing is the measured wall time of one strategy variant.
type Timing struct {
	Variant  string
	Strategy string
	Duration time.Duration
	Failed   bool
}

// Timings implements sdktrace.SpanProcessor and keeps the duration of every
// ended strategy variant span.
type Timings struct {
	mu      sync.Mutex
	entries []Timing
}

var _ sdktrace.SpanProcessor = (*Timings)(nil)

// NewTimings returns an empty Timings processor.
func NewTimings() *Timings {
	return &Timings{}
}

// OnStart does nothing.
func (t *Timings) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records s when it carries the strategy attribute.
func (t *Timings) OnEnd(s sdktrace.ReadOnlySpan) {
	var strategy string
	for _, kv := range s.Attributes() {
		if string(kv.Key) == StrategyAttribute {
			strategy = kv.Value.AsString()
			break
		}
	}
	if strategy == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Timing{
		Variant:  s.Name(),
		Strategy: strategy,
		Duration: s.EndTime().Sub(s.StartTime()),
		Failed:   s.Status().Code == codes.Error,
	})
}

// Entries returns the recorded timings ordered by variant label.
func (t *Timings) Entries() []Timing {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := slices.Clone(t.entries)
	slices.SortStableFunc(out, func(a, b Timing) int {
		return strings.Compare(a.Variant, b.Variant)
	})
	return out
}

// ForceFlush does nothing.
func (t *Timings) ForceFlush(context.Context) error { return nil }

// Shutdown does nothing.
func (t *Timings) Shutdown(context.Context) error { return nil }

// Install registers a global tracer provider feeding the given processors and
// returns its shutdown function.
func Install(processors ...sdktrace.SpanProcessor) func(context.Context) error {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
