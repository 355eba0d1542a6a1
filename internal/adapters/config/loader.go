// Package config provides the plan loader for pareto.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// supportedVersion is the only plan format version understood by the loader.
const supportedVersion = "1"

// Loader implements ports.PlanLoader using YAML documents.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Find walks up from cwd and returns the path of the nearest plan file.
func Find(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, PlanFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(zerr.Wrap(domain.ErrPlanNotFound, "no "+PlanFileName+" in any parent directory"), "cwd", cwd)
		}
		dir = parent
	}
}

// Load reads the plan at path. A directory is searched upwards for PlanFileName.
func (l *Loader) Load(path string) (*domain.Plan, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := Find(path)
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPlanReadFailed, err.Error()), "path", path)
	}

	plan, err := l.Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

// Parse resolves a plan document into validated domain values.
func (l *Loader) Parse(data []byte) (*domain.Plan, error) {
	var file Planfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(domain.ErrPlanParseFailed, err.Error())
	}

	if file.Version != "" && file.Version != supportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrPlanParseFailed, "unsupported plan version"), "version", file.Version)
	}
	if file.Version == "" {
		l.Logger.Warn(fmt.Sprintf("plan has no version, assuming %q", supportedVersion))
	}

	tasks, err := buildTasks(file.Tasks)
	if err != nil {
		return nil, err
	}

	// Eager structural validation: duplicates, dangling references, cycles.
	if _, err := domain.NewGraphFromTasks(tasks); err != nil {
		return nil, err
	}

	objectives, err := buildObjectives(file.Objectives)
	if err != nil {
		return nil, err
	}

	strategies, err := buildStrategies(file.Strategies)
	if err != nil {
		return nil, err
	}

	for _, id := range sortedKeys(file.Weights) {
		if w := file.Weights[id]; !(w > 0) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidInput, "objective weight must be positive"), "objective", id)
			return nil, zerr.With(err, "weight", w)
		}
	}

	return &domain.Plan{
		Name:       file.Name,
		Tasks:      tasks,
		Objectives: objectives,
		Run: domain.RunConfig{
			Strategies: strategies,
			Parallel:   file.Parallel,
			Tracks:     file.Tracks,
			Horizon:    file.Horizon,
			Weights:    file.Weights,
			Workers:    file.Workers,
		},
	}, nil
}

// buildTasks converts task DTOs into domain tasks ordered by identifier.
func buildTasks(dtos map[string]TaskDTO) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(dtos))
	for _, name := range sortedKeys(dtos) {
		dto := dtos[name]
		if strings.TrimSpace(name) == "" {
			return nil, zerr.Wrap(domain.ErrInvalidInput, "task identifier must not be empty")
		}
		if dto.Category == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "task category is required"), "task", name)
		}

		tasks = append(tasks, domain.Task{
			ID:           domain.NewInternedString(name),
			Duration:     dto.Duration,
			Category:     domain.NormalizeCategory(dto.Category),
			Priority:     dto.Priority,
			EnergyCost:   dto.Energy,
			Deadline:     dto.Deadline,
			Dependencies: canonicalize(dto.DependsOn),
		})
	}
	return tasks, nil
}

func buildObjectives(dtos []ObjectiveDTO) ([]domain.Objective, error) {
	objectives := make([]domain.Objective, 0, len(dtos))
	for i, dto := range dtos {
		kind := domain.RuleKind(strings.ToLower(strings.TrimSpace(dto.Rule)))
		if !slices.Contains(domain.RuleKinds, kind) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "unknown rule kind"), "rule", dto.Rule)
			return nil, zerr.With(err, "objective", objectiveName(dto, i))
		}

		direction, ok := domain.ParseDirection(dto.Direction)
		if !ok {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "unknown direction"), "direction", dto.Direction)
			return nil, zerr.With(err, "objective", objectiveName(dto, i))
		}

		categories := make([]domain.Category, len(dto.Categories))
		for j, c := range dto.Categories {
			categories[j] = domain.NormalizeCategory(c)
		}

		var weights map[domain.Category]float64
		if len(dto.Weights) > 0 {
			weights = make(map[domain.Category]float64, len(dto.Weights))
			for c, w := range dto.Weights {
				weights[domain.NormalizeCategory(c)] += w
			}
		}

		objectives = append(objectives, domain.Objective{
			ID: dto.ID,
			Rule: domain.Rule{
				Kind:       kind,
				Categories: categories,
				Weights:    weights,
				Expression: dto.Expression,
			},
			Direction: direction,
			Target:    dto.Target,
		})
	}
	return objectives, nil
}

func objectiveName(dto ObjectiveDTO, index int) string {
	if dto.ID != "" {
		return dto.ID
	}
	return fmt.Sprintf("#%d", index)
}

func buildStrategies(dtos []StrategyDTO) ([]domain.StrategyConfig, error) {
	if len(dtos) == 0 {
		return nil, nil
	}
	strategies := make([]domain.StrategyConfig, 0, len(dtos))
	for _, dto := range dtos {
		kind, ok := domain.ParseStrategyKind(dto.Kind)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStrategy, "cannot parse strategy list"), "strategy", dto.Kind)
		}
		if dto.Restarts < 0 {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidInput, "restarts must not be negative"), "strategy", dto.Kind)
			return nil, zerr.With(err, "restarts", dto.Restarts)
		}
		strategies = append(strategies, domain.StrategyConfig{
			Kind:     kind,
			Seed:     dto.Seed,
			Restarts: dto.Restarts,
		})
	}
	return strategies, nil
}

// canonicalize sorts, deduplicates and interns identifiers.
func canonicalize(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return domain.InternAll(slices.Compact(sorted))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
