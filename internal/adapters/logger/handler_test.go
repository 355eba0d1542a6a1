package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pareto/internal/adapters/logger"
)

func newTestHandler(t *testing.T) (*logger.PrettyHandler, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	return logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}), buf
}

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{name: "info", level: slog.LevelInfo, want: "message\n"},
		{name: "warn", level: slog.LevelWarn, want: "! message\n"},
		{name: "error", level: slog.LevelError, want: "✗ message\n"},
		{name: "debug filtered", level: slog.LevelDebug, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := newTestHandler(t)
			slog.New(h).Log(t.Context(), tt.level, "message")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	h, buf := newTestHandler(t)
	lg := slog.New(h.WithAttrs([]slog.Attr{slog.String("strategy", "density")}))

	lg.Info("unit complete", "outcome", "admitted", "evicted", 2)
	assert.Equal(t, "unit complete strategy=density outcome=admitted evicted=2\n", buf.String())
}

func TestPrettyHandler_Groups(t *testing.T) {
	h, buf := newTestHandler(t)
	lg := slog.New(h.WithGroup("run").WithGroup("unit"))

	lg.Info("started", "label", "random#3")
	assert.Equal(t, "started run.unit.label=random#3\n", buf.String())
}

func TestPrettyHandler_EmptyGroup(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Same(t, h, h.WithGroup(""))
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}

func TestPrettyHandler_ErrorDetails(t *testing.T) {
	h, buf := newTestHandler(t)

	slog.New(h).Error("Error: task finishes past the horizon",
		logger.KindKey, "InfeasibleInput", "variant", "density", "task", "c")

	want := "✗ Error: task finishes past the horizon (InfeasibleInput)\n" +
		"\n" +
		"  Details:\n" +
		"    variant: density\n" +
		"    task: c\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyHandler_KindOnFirstLine(t *testing.T) {
	h, buf := newTestHandler(t)

	slog.New(h).Warn("plan rejected\nsecond line", logger.KindKey, "InvalidInput")
	assert.Equal(t, "! plan rejected (InvalidInput)\nsecond line\n", buf.String())
}

func TestPrettyHandler_MultilineUsesDetails(t *testing.T) {
	h, buf := newTestHandler(t)

	slog.New(h).Info("line one\nline two", "variant", "random#1")
	assert.Equal(t, "line one\nline two\n\n  Details:\n    variant: random#1\n", buf.String())
}

func TestPrettyHandler_GroupedKindStaysAttr(t *testing.T) {
	h, buf := newTestHandler(t)

	slog.New(h.WithGroup("unit")).Info("done", logger.KindKey, "Internal")
	assert.Equal(t, "done unit.kind=Internal\n", buf.String())
}
