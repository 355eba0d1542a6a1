// Package scoring computes per-objective score vectors for schedules.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

type compiledObjective struct {
	id       string
	eval     func(a *aggregates) float64
	target   float64
	minimize bool
	weight   float64
}

// component maps a raw rule value onto the higher-is-better score axis.
func (c *compiledObjective) component(raw float64) float64 {
	v := raw
	if c.target > 0 {
		v = min(max(raw/c.target, 0), 1)
	}
	if c.minimize {
		v = -v
	}
	v *= c.weight
	if v == 0 {
		return 0
	}
	return v
}

// Scorer evaluates a fixed, ordered list of objectives against schedules.
// It is immutable after construction and safe for concurrent use.
type Scorer struct {
	objectives []compiledObjective
}

// New compiles objectives into a Scorer. weights optionally multiplies the
// score of the named objectives; every weight must be positive and finite.
func New(objectives []domain.Objective, weights map[string]float64) (*Scorer, error) {
	if len(objectives) == 0 {
		return nil, zerr.Wrap(domain.ErrInvalidInput, "at least one objective is required")
	}

	seen := make(map[string]bool, len(objectives))
	compiled := make([]compiledObjective, 0, len(objectives))
	for i := range objectives {
		o := &objectives[i]
		if o.ID == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "objective identifier is required"), "index", i)
		}
		if seen[o.ID] {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "duplicate objective"), "objective", o.ID)
		}
		seen[o.ID] = true

		c, err := compile(o)
		if err != nil {
			return nil, zerr.With(err, "objective", o.ID)
		}
		compiled = append(compiled, c)
	}

	for _, id := range sortedKeys(weights) {
		w := weights[id]
		if !seen[id] {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "weight references unknown objective"), "objective", id)
		}
		if !(w > 0) || math.IsInf(w, 0) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidInput, "objective weight must be positive"), "objective", id)
			return nil, zerr.With(err, "weight", w)
		}
		for i := range compiled {
			if compiled[i].id == id {
				compiled[i].weight = w
			}
		}
	}

	return &Scorer{objectives: compiled}, nil
}

// Validate reports whether objectives and weights form a usable scorer.
func Validate(objectives []domain.Objective, weights map[string]float64) error {
	_, err := New(objectives, weights)
	return err
}

// Score is a convenience that compiles objectives and scores one schedule.
func Score(s *domain.Schedule, objectives []domain.Objective) (domain.ScoreVector, error) {
	scorer, err := New(objectives, nil)
	if err != nil {
		return nil, err
	}
	return scorer.Score(s)
}

// Len returns the number of objectives, which is the length of every score vector.
func (s *Scorer) Len() int {
	return len(s.objectives)
}

// Objectives returns the objective identifiers in score vector order.
func (s *Scorer) Objectives() []string {
	ids := make([]string, len(s.objectives))
	for i := range s.objectives {
		ids[i] = s.objectives[i].id
	}
	return ids
}

// Raw returns each rule's value before target normalization, direction and weighting.
func (s *Scorer) Raw(schedule *domain.Schedule) []float64 {
	a := summarize(schedule)
	raw := make([]float64, len(s.objectives))
	for i := range s.objectives {
		raw[i] = s.objectives[i].eval(a)
	}
	return raw
}

// Score computes the score vector of a schedule without storing it.
func (s *Scorer) Score(schedule *domain.Schedule) (domain.ScoreVector, error) {
	raw := s.Raw(schedule)
	vec := make(domain.ScoreVector, len(raw))
	for i, r := range raw {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "rule evaluated to a non-finite value"), "objective", s.objectives[i].id)
			return nil, zerr.With(err, "schedule", schedule.ID.String())
		}
		vec[i] = s.objectives[i].component(r)
	}
	return vec, nil
}

// Apply scores the schedule and caches the vector on it.
func (s *Scorer) Apply(schedule *domain.Schedule) (domain.ScoreVector, error) {
	vec, err := s.Score(schedule)
	if err != nil {
		return nil, err
	}
	if err := schedule.SetScores(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// Zero returns the all-zero vector of this scorer's length.
func (s *Scorer) Zero() domain.ScoreVector {
	return make(domain.ScoreVector, len(s.objectives))
}

// Marginal estimates the weighted value a task adds on its own: the sum over
// objectives of the score change from placing only that task at offset 0.
func (s *Scorer) Marginal(t *domain.Task) float64 {
	empty := summarize(&domain.Schedule{})
	alone := summarize(&domain.Schedule{
		Span: t.Duration,
		Assignments: []domain.Assignment{{
			TaskID:   t.ID,
			Category: t.Category,
			Duration: t.Duration,
			Deadline: t.Deadline,
		}},
	})

	var total float64
	for i := range s.objectives {
		c := &s.objectives[i]
		delta := c.component(c.eval(alone)) - c.component(c.eval(empty))
		if !math.IsNaN(delta) && !math.IsInf(delta, 0) {
			total += delta
		}
	}
	return total
}

func compile(o *domain.Objective) (compiledObjective, error) {
	c := compiledObjective{
		id:     o.ID,
		target: o.Target,
		weight: 1,
	}

	switch o.Direction {
	case domain.DirectionDefault, domain.DirectionMaximize, domain.DirectionMinimize:
	default:
		return c, zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "unknown direction"), "direction", int(o.Direction))
	}
	c.minimize = o.EffectiveDirection() == domain.DirectionMinimize

	if math.IsNaN(o.Target) || math.IsInf(o.Target, 0) || o.Target < 0 {
		return c, zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "target must be a non-negative number"), "target", o.Target)
	}

	categories, err := ruleCategories(o.Rule.Categories)
	if err != nil {
		return c, err
	}

	switch o.Rule.Kind {
	case domain.RuleSumByCategory:
		if len(categories) == 0 {
			return c, zerr.Wrap(domain.ErrInvalidObjective, "sum-by-category requires at least one category")
		}
		c.eval = func(a *aggregates) float64 {
			var sum int64
			for _, cat := range categories {
				sum += a.totals[cat]
			}
			return float64(sum)
		}

	case domain.RuleWeightedCount:
		if len(o.Rule.Weights) == 0 {
			return c, zerr.Wrap(domain.ErrInvalidObjective, "weighted-count requires category weights")
		}
		keys := sortedKeys(o.Rule.Weights)
		weights := make([]float64, len(keys))
		for i, cat := range keys {
			w := o.Rule.Weights[cat]
			if cat == "" || math.IsNaN(w) || math.IsInf(w, 0) {
				return c, zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "invalid category weight"), "category", string(cat))
			}
			weights[i] = w
		}
		c.eval = func(a *aggregates) float64 {
			var sum float64
			for i, cat := range keys {
				sum += weights[i] * float64(a.counts[cat])
			}
			return sum
		}

	case domain.RuleDeadlinePenalty:
		if len(categories) == 0 {
			c.eval = func(a *aggregates) float64 { return float64(a.lateness) }
			break
		}
		c.eval = func(a *aggregates) float64 {
			var sum int64
			for _, cat := range categories {
				sum += a.late[cat]
			}
			return float64(sum)
		}

	case domain.RuleCustomExpression:
		expr, err := compileExpression(o.Rule.Expression)
		if err != nil {
			return c, err
		}
		c.eval = expr.eval

	default:
		return c, zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "unknown rule kind"), "rule", string(o.Rule.Kind))
	}

	return c, nil
}

// ruleCategories returns the rule's categories sorted and deduplicated.
func ruleCategories(in []domain.Category) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(in))
	for _, cat := range in {
		if cat == "" {
			return nil, zerr.Wrap(domain.ErrInvalidObjective, "rule category must not be empty")
		}
		out = append(out, cat)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
