package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/pareto/internal/adapters/telemetry"
	"go.trai.ch/pareto/internal/core/ports"
)

// install points the global provider at a fresh recorder for the test.
func install(t *testing.T, extra ...sdktrace.SpanProcessor) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	shutdown := telemetry.Install(append([]sdktrace.SpanProcessor{sr}, extra...)...)
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return sr
}

func TestOTelTracer_SpanAttributesAndErrors(t *testing.T) {
	sr := install(t)
	tracer := telemetry.NewOTelTracer("test")

	_, span := tracer.Start(context.Background(), "priority")
	span.SetAttribute("pareto.strategy", "priority")
	span.SetAttribute("pareto.span", int64(40))
	span.SetAttribute("pareto.units", 4)
	span.SetAttribute("pareto.score", 1.5)
	span.SetAttribute("pareto.parallel", true)
	span.SetAttribute("pareto.labels", []string{"a", "b"})
	span.SetAttribute("pareto.other", struct{ X int }{X: 1})
	span.RecordError(errors.New("boom"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "priority", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "priority", attrs["pareto.strategy"].AsString())
	assert.Equal(t, int64(40), attrs["pareto.span"].AsInt64())
	assert.Equal(t, int64(4), attrs["pareto.units"].AsInt64())
	assert.InDelta(t, 1.5, attrs["pareto.score"].AsFloat64(), 1e-9)
	assert.True(t, attrs["pareto.parallel"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["pareto.labels"].AsStringSlice())
	assert.Equal(t, "{1}", attrs["pareto.other"].AsString())
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	sr := install(t)
	tracer := telemetry.NewOTelTracer("test")

	// Without a recording span the plan is dropped.
	tracer.EmitPlan(context.Background(), []string{"priority"})

	ctx, span := tracer.Start(context.Background(), "optimize")
	tracer.EmitPlan(ctx, []string{"priority", "random#1"})
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
}

func TestOTelTracer_RootOption(t *testing.T) {
	sr := install(t)
	tracer := telemetry.NewOTelTracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child")
	_, root := tracer.Start(ctx, "detached", ports.WithRoot())
	root.End()
	child.End()
	parent.End()

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range sr.Ended() {
		byName[s.Name()] = s
	}
	require.Len(t, byName, 3)
	assert.Equal(t, byName["parent"].SpanContext().SpanID(), byName["child"].Parent().SpanID())
	assert.False(t, byName["detached"].Parent().IsValid())
}

func TestOTelTracer_WriteBecomesLogEvent(t *testing.T) {
	sr := install(t)
	tracer := telemetry.NewOTelTracer("test")

	_, span := tracer.Start(context.Background(), "density")
	n, err := span.Write([]byte("placed 3 tasks"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	require.NotEmpty(t, ended[0].Events())
	assert.Equal(t, "log", ended[0].Events()[0].Name)
}

func TestTimings(t *testing.T) {
	timings := telemetry.NewTimings()
	install(t, timings)
	tracer := telemetry.NewOTelTracer("test")

	ctx, outer := tracer.Start(context.Background(), "optimize")
	for _, label := range []string{"random#1", "category", "priority"} {
		_, span := tracer.Start(ctx, label)
		span.SetAttribute(telemetry.StrategyAttribute, label)
		if label == "category" {
			span.RecordError(errors.New("horizon"))
		}
		span.End()
	}
	outer.End()

	entries := timings.Entries()
	require.Len(t, entries, 3, "spans without the strategy attribute are ignored")
	assert.Equal(t, "category", entries[0].Variant)
	assert.True(t, entries[0].Failed)
	assert.Equal(t, "priority", entries[1].Variant)
	assert.False(t, entries[1].Failed)
	assert.Equal(t, "random#1", entries[2].Variant)
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Duration, time.Duration(0))
	}
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()
	newCtx, span := tracer.Start(ctx, "noop", ports.WithRoot())
	assert.Equal(t, ctx, newCtx)

	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.End()
	tracer.EmitPlan(ctx, []string{"priority"})
}

func TestBatchProcessor_FlushOnSize(t *testing.T) {
	var mu sync.Mutex
	var collected bytes.Buffer
	bp := telemetry.NewBatchProcessor(5, time.Hour, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		collected.Write(data)
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("123"))
	require.NoError(t, err)
	mu.Lock()
	assert.Zero(t, collected.Len())
	mu.Unlock()

	_, err = bp.Write([]byte("456"))
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, "123456", collected.String())
	mu.Unlock()
}

func TestBatchProcessor_FlushOnTime(t *testing.T) {
	flushed := make(chan []byte, 1)
	bp := telemetry.NewBatchProcessor(100, 10*time.Millisecond, func(data []byte) {
		flushed <- data
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("tick"))
	require.NoError(t, err)

	select {
	case data := <-flushed:
		assert.Equal(t, "tick", string(data))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for flush")
	}
}

func TestBatchProcessor_CloseFlushes(t *testing.T) {
	var collected []byte
	bp := telemetry.NewBatchProcessor(100, time.Hour, func(data []byte) {
		collected = append(collected, data...)
	})

	_, err := bp.Write([]byte("pending"))
	require.NoError(t, err)
	bp.Flush()
	assert.Equal(t, "pending", string(collected))

	_, err = bp.Write([]byte(" more"))
	require.NoError(t, err)
	require.NoError(t, bp.Close())
	require.NoError(t, bp.Close())
	assert.Equal(t, "pending more", string(collected))

	_, err = bp.Write([]byte("late"))
	assert.Error(t, err)
}

func TestBatchProcessor_ConcurrentWrites(t *testing.T) {
	var mu sync.Mutex
	total := 0
	bp := telemetry.NewBatchProcessor(20, 5*time.Millisecond, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		total += len(data)
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = bp.Write([]byte("a"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, bp.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1000, total)
}
