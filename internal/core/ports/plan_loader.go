// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/pareto/internal/core/domain"

// PlanLoader defines the interface for loading an optimization plan from a file.
//
//go:generate go run go.uber.org/mock/mockgen -source=plan_loader.go -destination=mocks/mock_plan_loader.go -package=mocks
type PlanLoader interface {
	// Load reads the plan at path and resolves it into validated domain values.
	Load(path string) (*domain.Plan, error)

	// Parse resolves an in-memory plan document. The format is the same as Load's.
	Parse(data []byte) (*domain.Plan, error)
}
