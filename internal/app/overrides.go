package app

import (
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// Overrides replace plan run parameters from the command line.
// Nil fields leave the plan's value untouched.
type Overrides struct {
	Seed     *int64
	Restarts *int
	Parallel *bool
	Tracks   *int
	Horizon  *int64
	Workers  *int
}

// Apply writes the set overrides into run.
// Seed and Restarts apply to every randomized strategy; when the run has no
// strategies the defaults are materialized first so the override has a target.
func (o Overrides) Apply(run *domain.RunConfig) error {
	if o.Restarts != nil && *o.Restarts < 1 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidInput, "restarts must be at least 1"), "restarts", *o.Restarts)
	}

	if o.Seed != nil || o.Restarts != nil {
		if len(run.Strategies) == 0 {
			run.Strategies = domain.DefaultStrategies(0, 1)
		}
		for i := range run.Strategies {
			sc := &run.Strategies[i]
			if sc.Kind != domain.StrategyRandom {
				continue
			}
			if o.Seed != nil {
				sc.Seed = *o.Seed
			}
			if o.Restarts != nil {
				sc.Restarts = *o.Restarts
			}
		}
	}

	if o.Parallel != nil {
		run.Parallel = *o.Parallel
	}
	if o.Tracks != nil {
		run.Tracks = *o.Tracks
	}
	if o.Horizon != nil {
		run.Horizon = *o.Horizon
	}
	if o.Workers != nil {
		run.Workers = *o.Workers
	}
	return nil
}
