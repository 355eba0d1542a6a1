package ports

import (
	"context"

	"go.trai.ch/pareto/internal/core/domain"
)

// RunObserver receives progress events while an optimization run executes.
// Events arrive from a single goroutine in deterministic unit order.
type RunObserver interface {
	// OnPlanEmit is called once with the labels of every planned strategy variant.
	OnPlanEmit(units []string)

	// OnUnitComplete is called when a variant's schedule has been offered to the frontier.
	// outcome is one of "admitted", "rejected", "duplicate" or "failed".
	OnUnitComplete(unit, outcome string, err error)
}

// Renderer is the abstraction for output rendering.
// It decouples optimization progress from presentation, so the same events can
// drive either a table view or linear CI logs.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	RunObserver

	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to flush any buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	// For synchronous renderers, this may return immediately.
	Wait() error

	// OnResult presents the finalized result of a run.
	OnResult(result *domain.Result) error
}
