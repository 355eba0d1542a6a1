package ports

import (
	"context"

	"go.trai.ch/pareto/internal/core/domain"
)

// PlanRepository persists named plans.
//
//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
type PlanRepository interface {
	// Save stores the plan under its name, replacing any previous version.
	Save(ctx context.Context, plan *domain.Plan) error

	// Load retrieves the plan with the given name.
	// Returns domain.ErrPlanNotFound if it does not exist.
	Load(ctx context.Context, name string) (*domain.Plan, error)

	// List returns the names of all stored plans in ascending order.
	List(ctx context.Context) ([]string, error)
}
