package constructor

import (
	"cmp"
	"math/rand/v2"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// Strategy selects the next task to place among the currently schedulable ones.
// ready is never empty and is ordered by task identifier; Pick returns an index into it.
type Strategy interface {
	Name() string
	Pick(ready []domain.Task, state *State) int
}

// TrackBalancer is implemented by strategies that place each task on the
// least loaded free track instead of the first free one.
type TrackBalancer interface {
	BalanceTracks() bool
}

// Valuer estimates the value a task contributes to the run's objectives.
type Valuer interface {
	Marginal(t *domain.Task) float64
}

// NewStrategy builds the strategy for variant i of cfg.
func NewStrategy(cfg domain.StrategyConfig, variant int, valuer Valuer) (Strategy, error) {
	switch cfg.Kind {
	case domain.StrategyPriority:
		return Priority{}, nil
	case domain.StrategyDensity:
		return NewDensity(valuer), nil
	case domain.StrategyCategory:
		return Category{}, nil
	case domain.StrategyBalanced:
		return Balanced{}, nil
	case domain.StrategyRandom:
		return NewRandom(cfg.VariantSeed(variant)), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStrategy, "cannot build strategy"), "strategy", string(cfg.Kind))
	}
}

// pickBest returns the index of the first element that no later element beats.
func pickBest(ready []domain.Task, better func(a, b *domain.Task) int) int {
	best := 0
	for i := 1; i < len(ready); i++ {
		if better(&ready[i], &ready[best]) > 0 {
			best = i
		}
	}
	return best
}

// compareUrgency prefers tasks with a deadline, earliest first.
func compareUrgency(a, b *domain.Task) int {
	switch {
	case a.HasDeadline() && !b.HasDeadline():
		return 1
	case !a.HasDeadline() && b.HasDeadline():
		return -1
	default:
		return cmp.Compare(b.Deadline, a.Deadline)
	}
}

// Priority places the highest-priority ready task first, then the most urgent.
// Remaining ties go to the smallest identifier.
type Priority struct{}

// Name implements Strategy.
func (Priority) Name() string { return string(domain.StrategyPriority) }

// Pick implements Strategy.
func (Priority) Pick(ready []domain.Task, _ *State) int {
	return pickBest(ready, func(a, b *domain.Task) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return compareUrgency(a, b)
	})
}

// Density greedily places the ready task with the highest marginal value per
// time unit under the run's objective weighting.
type Density struct {
	valuer Valuer
	cache  map[domain.InternedString]float64
}

// NewDensity creates a Density strategy. A nil valuer rates every task by priority.
func NewDensity(valuer Valuer) *Density {
	return &Density{
		valuer: valuer,
		cache:  make(map[domain.InternedString]float64),
	}
}

// Name implements Strategy.
func (*Density) Name() string { return string(domain.StrategyDensity) }

// Pick implements Strategy.
func (d *Density) Pick(ready []domain.Task, _ *State) int {
	return pickBest(ready, func(a, b *domain.Task) int {
		if c := cmp.Compare(d.density(a), d.density(b)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Duration, a.Duration)
	})
}

func (d *Density) density(t *domain.Task) float64 {
	if v, ok := d.cache[t.ID]; ok {
		return v
	}
	var value float64
	if d.valuer != nil {
		value = d.valuer.Marginal(t)
	} else {
		value = float64(t.Priority)
	}
	v := value / float64(t.Duration)
	d.cache[t.ID] = v
	return v
}

// Category keeps working in the category of the previously placed task while
// it has ready work, then moves to the next category by name.
type Category struct{}

// Name implements Strategy.
func (Category) Name() string { return string(domain.StrategyCategory) }

// Pick implements Strategy.
func (Category) Pick(ready []domain.Task, state *State) int {
	return pickBest(ready, func(a, b *domain.Task) int {
		if state.HasLast {
			aSame, bSame := a.Category == state.LastCategory, b.Category == state.LastCategory
			if aSame != bSame {
				if aSame {
					return 1
				}
				return -1
			}
		}
		if c := cmp.Compare(b.Category, a.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Priority, b.Priority)
	})
}

// Balanced places the longest ready task first, then the higher priority.
// Remaining ties go to the smallest identifier. On parallel tracks each task
// lands on the free track with the least work so far.
type Balanced struct{}

// Name implements Strategy.
func (Balanced) Name() string { return string(domain.StrategyBalanced) }

// Pick implements Strategy.
func (Balanced) Pick(ready []domain.Task, _ *State) int {
	return pickBest(ready, func(a, b *domain.Task) int {
		if c := cmp.Compare(a.Duration, b.Duration); c != 0 {
			return c
		}
		return cmp.Compare(a.Priority, b.Priority)
	})
}

// BalanceTracks implements TrackBalancer.
func (Balanced) BalanceTracks() bool { return true }

// Random picks uniformly among ready tasks from an explicitly seeded source,
// producing a random topological order that is reproducible from its seed.
type Random struct {
	seed int64
	rng  *rand.Rand
}

// NewRandom creates a Random strategy from seed.
func NewRandom(seed int64) *Random {
	s := uint64(seed) //nolint:gosec // the seed's bit pattern is all that matters
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)), //nolint:gosec // reproducibility, not security
	}
}

// Name implements Strategy.
func (r *Random) Name() string {
	return domain.StrategyConfig{Kind: domain.StrategyRandom, Seed: r.seed}.VariantLabel(0)
}

// Pick implements Strategy.
func (r *Random) Pick(ready []domain.Task, _ *State) int {
	return r.rng.IntN(len(ready))
}
