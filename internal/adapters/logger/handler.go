package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/pareto/internal/ui/output"
	"go.trai.ch/pareto/internal/ui/style"
)

// PrettyHandler is a slog.Handler that produces human-readable, colored output
// using the shared UI components.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &PrettyHandler{
		out:   output.New(w),
		level: levelVar,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// KindKey is the attribute carrying an error's kind. The handler prints it
// on the first line of the message rather than among the attributes.
const KindKey = "kind"

// Handle formats and writes the record.
//
// Error records and multi-line messages list their attributes in a Details
// block below the message. Other records append them inline as key=value.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var icon string
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		icon = style.Cross
		color = termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		icon = style.Warning
		color = termenv.RGBColor(string(style.Yellow))
	default:
		color = termenv.RGBColor(string(style.Slate))
	}

	var kind string
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == KindKey && h.group == "" {
			kind = attr.Value.String()
			return true
		}
		attrs = append(attrs, attr)
		return true
	})

	msg := r.Message
	if kind != "" {
		first, rest, multi := strings.Cut(msg, "\n")
		msg = first + " (" + kind + ")"
		if multi {
			msg += "\n" + rest
		}
	}

	if len(attrs) > 0 {
		if r.Level >= slog.LevelError || strings.Contains(msg, "\n") {
			msg += "\n\n  Details:"
			for _, attr := range attrs {
				msg += "\n    " + h.key(attr) + ": " + attr.Value.String()
			}
		} else {
			parts := make([]string, 0, len(attrs))
			for _, attr := range attrs {
				parts = append(parts, h.key(attr)+"="+attr.Value.String())
			}
			msg += " " + strings.Join(parts, " ")
		}
	}

	if icon != "" {
		msg = icon + " " + msg
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")

	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler whose attributes are qualified by name.
// An empty name returns the receiver unchanged.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: group,
	}
}

func (h *PrettyHandler) key(attr slog.Attr) string {
	if h.group != "" {
		return h.group + "." + attr.Key
	}
	return attr.Key
}
