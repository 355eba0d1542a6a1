// Package linear provides a synchronous, line-oriented renderer for optimization runs.
package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/pareto/internal/adapters/detector"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/pareto/internal/ui/output"
	"go.trai.ch/pareto/internal/ui/style"
	"go.trai.ch/pareto/internal/ui/table"
	"go.trai.ch/zerr"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer. Progress goes to stderr as one line per
// strategy variant; the result goes to stdout in the configured format.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output
	format detector.Format

	mu        sync.Mutex
	planned   int
	completed int
}

// NewRenderer creates a new Renderer. Nil writers mean os.Stdout and os.Stderr.
// FormatAuto is treated as FormatText.
func NewRenderer(stdout, stderr io.Writer, format detector.Format) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if format == detector.FormatAuto {
		format = detector.FormatText
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		format: format,
	}
}

// Start is a no-op for linear renderer (synchronous).
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop is a no-op; every line is written as it happens.
func (r *Renderer) Stop() error {
	return nil
}

// Wait is a no-op for linear renderer (synchronous).
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned strategy variants.
func (r *Renderer) OnPlanEmit(units []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.planned = len(units)
	r.completed = 0
	_, _ = fmt.Fprintf(r.stderr, "Planning %d strategy variant(s): %s\n",
		len(units), strings.Join(units, ", "))
}

// OnUnitComplete prints how a variant's schedule fared against the frontier.
func (r *Renderer) OnUnitComplete(unit, outcome string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	prefix := r.output.String(fmt.Sprintf("[%d/%d %s]", r.completed, r.planned, unit)).Faint().String()

	switch {
	case err != nil:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s: %v\n", prefix, symbol, outcome, err)
	case outcome == "admitted":
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", prefix, symbol, outcome)
	default:
		symbol := r.output.String(style.Tilde).Faint().String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", prefix, symbol, outcome)
	}
}

// OnResult writes the result to stdout and its warnings to stderr.
func (r *Renderer) OnResult(result *domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == detector.FormatJSON {
		enc := json.NewEncoder(r.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return zerr.Wrap(err, "failed to encode result")
		}
		return nil
	}

	for _, w := range result.Warnings {
		symbol := r.output.String(style.Warning).Foreground(termenv.ANSIYellow).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s: %s\n", symbol, w.Variant, w.Message)
	}

	_, _ = fmt.Fprintln(r.stdout, summary(result))
	if r.format == detector.FormatTable {
		_, _ = fmt.Fprintln(r.stdout, table.Frontier(result))
		for i, s := range result.Frontier {
			_, _ = fmt.Fprintf(r.stdout, "\n%d. %s (%s)\n%s\n", i+1, table.ShortID(s), s.Strategy, table.Assignments(s))
		}
		return nil
	}

	writeText(r.stdout, result)
	return nil
}

func summary(result *domain.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frontier: %d schedule(s) from %d candidate(s), %d dominated",
		len(result.Frontier), result.Candidates, result.Dominated)
	if result.Cached {
		b.WriteString(" (cached)")
	}
	return b.String()
}

func writeText(w io.Writer, result *domain.Result) {
	_, _ = fmt.Fprintf(w, "Objectives: %s\n", strings.Join(result.Objectives, ", "))
	for i, s := range result.Frontier {
		_, _ = fmt.Fprintf(w, "\n%d. %s %s span %d\n", i+1, table.ShortID(s), s.Strategy, s.Span)

		scores := s.Scores()
		parts := make([]string, len(scores))
		for j, v := range scores {
			name := fmt.Sprintf("#%d", j)
			if j < len(result.Objectives) {
				name = result.Objectives[j]
			}
			parts[j] = name + "=" + table.FormatScore(v)
		}
		_, _ = fmt.Fprintf(w, "   scores: %s\n", strings.Join(parts, " "))

		for _, a := range s.Assignments {
			_, _ = fmt.Fprintf(w, "   %6d-%-6d track %d  %s (%s)\n",
				a.Start, a.Finish(), a.Track, a.TaskID.String(), a.Category)
		}
	}
}
