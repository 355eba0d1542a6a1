package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/pareto/internal/adapters/detector"
	"go.trai.ch/pareto/internal/adapters/linear"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// Renderer wraps the progress model as a ports.Renderer. Progress is drawn on
// stderr while the run executes; the final result is printed as tables.
type Renderer struct {
	program *tea.Program
	model   *Model
	final   *linear.Renderer
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(stdout, stderr io.Writer, opts ...tea.ProgramOption) *Renderer {
	model := NewModel()
	opts = append([]tea.ProgramOption{tea.WithOutput(stderr)}, opts...)
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		final:   linear.NewRenderer(stdout, stderr, detector.FormatTable),
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		final, err := r.program.Run()
		if err == nil {
			if m, ok := final.(*Model); ok && m.Interrupted {
				err = zerr.Wrap(domain.ErrRunCancelled, "interrupted from the terminal")
			}
		}
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated. Quitting from the keyboard
// reports domain.ErrRunCancelled so the run stops scheduling variants.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit forwards the planned variants to the TUI.
func (r *Renderer) OnPlanEmit(units []string) {
	r.program.Send(MsgPlan{Units: units})
}

// OnUnitComplete forwards variant outcomes to the TUI.
func (r *Renderer) OnUnitComplete(unit, outcome string, err error) {
	r.program.Send(MsgUnitComplete{Unit: unit, Outcome: outcome, Err: err})
}

// OnResult prints the frontier tables once the TUI has exited.
func (r *Renderer) OnResult(result *domain.Result) error {
	return r.final.OnResult(result)
}

// Model returns the underlying model for testing.
func (r *Renderer) Model() *Model {
	return r.model
}
