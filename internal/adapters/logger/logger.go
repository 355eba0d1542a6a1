// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
)

const variantKey = "variant"

// messager is implemented by zerr errors, which report their own message
// without the rest of the chain.
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a Logger that pretty-prints to stderr.
func New() ports.Logger {
	return &Logger{
		logger: slog.New(newHandler(os.Stderr, false)),
		output: os.Stderr,
	}
}

func newHandler(w io.Writer, jsonMode bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if jsonMode {
		return slog.NewJSONHandler(w, opts)
	}
	return NewPrettyHandler(w, opts)
}

// SetOutput updates the logger's output destination, keeping the current
// JSON mode. A nil writer means os.Stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(newHandler(w, l.jsonMode))
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.logger = slog.New(newHandler(l.output, enable))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its cause chain and metadata.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	meta := domain.Metadata(err)
	keys := metadataKeys(meta)
	kind := domain.Kind(err)

	if l.jsonMode {
		args := []any{"error", err.Error(), "kind", string(kind)}
		for _, k := range keys {
			args = append(args, k, meta[k])
		}
		l.logger.Error("optimization failed", args...)
		return
	}

	attrs := make([]any, 0, len(keys)+1)
	if kind != domain.KindInternal {
		attrs = append(attrs, slog.String(KindKey, string(kind)))
	}
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, meta[k]))
	}
	l.logger.Error(strings.Join(formatChain(err), "\n"), attrs...)
}

// metadataKeys orders meta's keys for display. The variant that failed comes
// first, the rest follow alphabetically.
func metadataKeys(meta map[string]any) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k != variantKey {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if _, ok := meta[variantKey]; ok {
		keys = slices.Insert(keys, 0, variantKey)
	}
	return keys
}

// formatChain renders the messages of err's chain, outermost first.
func formatChain(err error) []string {
	var messages []string
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			messages = append(messages, current.Error())
			break
		}
		if msg := m.Message(); msg != "" {
			messages = append(messages, msg)
		}
		current = errors.Unwrap(current)
	}

	var out []string
	for i, msg := range messages {
		parts := strings.Split(msg, "\n")
		if i == 0 {
			out = append(out, "Error: "+parts[0])
			for _, line := range parts[1:] {
				out = append(out, "       "+line)
			}
			continue
		}
		if i == 1 {
			out = append(out, "", "  Caused by:")
		}
		out = append(out, "    → "+parts[0])
		for _, line := range parts[1:] {
			out = append(out, "      "+line)
		}
	}
	return out
}
