package domain

import (
	"strconv"
	"strings"
)

// StrategyKind names a schedule construction strategy.
type StrategyKind string

const (
	// StrategyPriority orders ready tasks by explicit priority, then deadline.
	StrategyPriority StrategyKind = "priority"
	// StrategyDensity greedily picks the ready task with the best value per time unit.
	StrategyDensity StrategyKind = "density"
	// StrategyCategory keeps tasks of the same category together.
	StrategyCategory StrategyKind = "category"
	// StrategyBalanced places the longest ready task first and spreads work
	// evenly over parallel tracks.
	StrategyBalanced StrategyKind = "balanced"
	// StrategyRandom draws seeded random topological orders.
	StrategyRandom StrategyKind = "random"
)

// StrategyKinds lists every supported strategy kind in their canonical order.
var StrategyKinds = []StrategyKind{
	StrategyPriority,
	StrategyDensity,
	StrategyCategory,
	StrategyBalanced,
	StrategyRandom,
}

// ParseStrategyKind converts a configuration string to a StrategyKind.
func ParseStrategyKind(s string) (StrategyKind, bool) {
	kind := StrategyKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case StrategyPriority, StrategyDensity, StrategyCategory, StrategyBalanced, StrategyRandom:
		return kind, true
	case "longest-first", "lpt":
		return StrategyBalanced, true
	case "randomized", "randomized-restart", "restart":
		return StrategyRandom, true
	case "greedy", "greedy-by-density":
		return StrategyDensity, true
	case "deadline", "earliest-deadline":
		return StrategyPriority, true
	default:
		return "", false
	}
}

// StrategyConfig selects one strategy and its variants.
type StrategyConfig struct {
	Kind StrategyKind
	// Seed is the base seed of a randomized strategy. Variant i uses Seed+i.
	Seed int64
	// Restarts is the number of randomized variants. Values below 1 mean one.
	Restarts int
}

// Variants returns the number of (strategy, variant) units the config expands to.
func (c StrategyConfig) Variants() int {
	if c.Kind != StrategyRandom || c.Restarts < 1 {
		return 1
	}
	return c.Restarts
}

// VariantSeed returns the seed used by variant i.
func (c StrategyConfig) VariantSeed(i int) int64 {
	return c.Seed + int64(i)
}

// VariantLabel names variant i for warnings and schedule provenance.
func (c StrategyConfig) VariantLabel(i int) string {
	if c.Kind != StrategyRandom {
		return string(c.Kind)
	}
	return string(c.Kind) + "#" + strconv.FormatInt(c.VariantSeed(i), 10)
}

// RunConfig is the explicit context of one optimization run.
type RunConfig struct {
	Strategies []StrategyConfig
	// Parallel allows independent tasks to overlap on separate tracks.
	Parallel bool
	// Tracks bounds the number of parallel tracks. Zero means unbounded.
	Tracks int
	// Horizon, when positive, is the latest allowed finish time.
	Horizon int64
	// Weights multiply normalized objective scores before dominance comparison.
	Weights map[string]float64
	// Workers bounds concurrent construction units. Zero uses the CPU count.
	Workers int
}

// DefaultStrategies returns the strategy list used when a run configures none.
func DefaultStrategies(seed int64, restarts int) []StrategyConfig {
	return []StrategyConfig{
		{Kind: StrategyPriority},
		{Kind: StrategyDensity},
		{Kind: StrategyCategory},
		{Kind: StrategyBalanced},
		{Kind: StrategyRandom, Seed: seed, Restarts: restarts},
	}
}

// Warning reports a strategy variant that failed without aborting the run.
type Warning struct {
	Strategy StrategyKind `json:"strategy"`
	Variant  string       `json:"variant"`
	Kind     ErrorKind    `json:"kind"`
	Message  string       `json:"message"`
	Err      error        `json:"-"`
}

// Result is the outcome of one optimization run.
type Result struct {
	// Frontier is the finalized, deterministically ordered set of non-dominated schedules.
	Frontier []*Schedule `json:"frontier"`
	// Objectives lists objective identifiers in score vector order.
	Objectives []string `json:"objectives"`
	// Warnings collects per-variant failures.
	Warnings []Warning `json:"warnings"`
	// Candidates counts the scored schedules offered to the frontier.
	Candidates int `json:"candidates"`
	// Dominated counts candidates that were rejected or later evicted.
	Dominated int `json:"dominated"`
	// Cached reports whether the result was served from the result store.
	Cached bool `json:"cached"`
}
