package domain

import "strings"

// RuleKind selects how an objective turns a schedule into a score.
type RuleKind string

const (
	// RuleSumByCategory sums the durations of tasks in the rule's categories.
	RuleSumByCategory RuleKind = "sum-by-category"
	// RuleWeightedCount sums a per-category weight for every placed task.
	RuleWeightedCount RuleKind = "weighted-count"
	// RuleDeadlinePenalty sums how far tasks finish past their deadlines.
	RuleDeadlinePenalty RuleKind = "deadline-penalty"
	// RuleCustomExpression evaluates an arithmetic expression over schedule aggregates.
	RuleCustomExpression RuleKind = "custom-expression"
)

// RuleKinds lists every supported rule kind.
var RuleKinds = []RuleKind{
	RuleSumByCategory,
	RuleWeightedCount,
	RuleDeadlinePenalty,
	RuleCustomExpression,
}

// NaturalDirection returns the direction a rule's raw value is read in.
// Penalties are better when small; everything else is better when large.
func (k RuleKind) NaturalDirection() Direction {
	if k == RuleDeadlinePenalty {
		return DirectionMinimize
	}
	return DirectionMaximize
}

// Direction states whether higher or lower raw scores are preferred.
type Direction int

const (
	// DirectionDefault defers to the rule kind's natural direction.
	DirectionDefault Direction = iota
	// DirectionMaximize prefers higher raw scores.
	DirectionMaximize
	// DirectionMinimize prefers lower raw scores.
	DirectionMinimize
)

// ParseDirection converts a configuration string to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionDefault, true
	case "max", "maximize", "higher":
		return DirectionMaximize, true
	case "min", "minimize", "lower":
		return DirectionMinimize, true
	default:
		return DirectionDefault, false
	}
}

// String returns the configuration spelling of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionMaximize:
		return "maximize"
	case DirectionMinimize:
		return "minimize"
	default:
		return "default"
	}
}

// Rule is a tagged variant describing a scoring rule as data.
// Only the fields relevant to Kind are read.
type Rule struct {
	Kind       RuleKind
	Categories []Category
	Weights    map[Category]float64
	Expression string
}

// Objective is a life goal a schedule is measured against.
type Objective struct {
	ID        string
	Rule      Rule
	Direction Direction
	// Target, when positive, maps the raw score onto [0, 1] as raw/Target.
	Target float64
}

// EffectiveDirection resolves DirectionDefault against the rule kind.
func (o *Objective) EffectiveDirection() Direction {
	if o.Direction == DirectionDefault {
		return o.Rule.Kind.NaturalDirection()
	}
	return o.Direction
}

// MeasuresCategory reports whether the objective's rule is restricted to c.
// A rule with no categories measures every category.
func (o *Objective) MeasuresCategory(c Category) bool {
	if len(o.Rule.Categories) == 0 {
		return true
	}
	for _, rc := range o.Rule.Categories {
		if rc == c {
			return true
		}
	}
	return false
}
