package ports

import "go.trai.ch/pareto/internal/core/domain"

// ResultStore defines the interface for storing and retrieving finalized optimization results.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ResultStore interface {
	// Get retrieves the result stored under a run fingerprint.
	// Returns nil, nil if not found.
	Get(fingerprint string) (*domain.Result, error)

	// Put stores the result under a run fingerprint.
	Put(fingerprint string, result *domain.Result) error
}
