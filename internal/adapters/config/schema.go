package config

// PlanFileName is the plan file looked up when no path is given.
const PlanFileName = "pareto.yaml"

// Planfile represents the structure of a pareto.yaml plan document.
// JSON documents with the same keys are accepted as well.
type Planfile struct {
	Version    string             `yaml:"version"`
	Name       string             `yaml:"name"`
	Horizon    int64              `yaml:"horizon"`
	Tracks     int                `yaml:"tracks"`
	Parallel   bool               `yaml:"parallel"`
	Workers    int                `yaml:"workers"`
	Tasks      map[string]TaskDTO `yaml:"tasks"`
	Objectives []ObjectiveDTO     `yaml:"objectives"`
	Strategies []StrategyDTO      `yaml:"strategies"`
	Weights    map[string]float64 `yaml:"weights"`
}

// TaskDTO represents a task definition in the plan.
type TaskDTO struct {
	Duration  int64    `yaml:"duration"`
	Category  string   `yaml:"category"`
	Priority  int      `yaml:"priority"`
	Energy    int      `yaml:"energy"`
	Deadline  int64    `yaml:"deadline"`
	DependsOn []string `yaml:"dependsOn"`
}

// ObjectiveDTO represents an objective definition in the plan.
type ObjectiveDTO struct {
	ID         string             `yaml:"id"`
	Rule       string             `yaml:"rule"`
	Categories []string           `yaml:"categories"`
	Weights    map[string]float64 `yaml:"weights"`
	Expression string             `yaml:"expression"`
	Direction  string             `yaml:"direction"`
	Target     float64            `yaml:"target"`
}

// StrategyDTO represents one entry of the strategy list.
type StrategyDTO struct {
	Kind     string `yaml:"kind"`
	Seed     int64  `yaml:"seed"`
	Restarts int    `yaml:"restarts"`
}
