package ports

import "go.trai.ch/pareto/internal/core/domain"

// Hasher defines the interface for computing run fingerprints.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Fingerprint computes a stable digest of everything that determines a run's result.
	Fingerprint(plan *domain.Plan) (string, error)
}
