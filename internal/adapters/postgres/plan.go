package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// strategyRow is the JSONB shape of one strategy config.
type strategyRow struct {
	Kind     string `json:"kind"`
	Seed     int64  `json:"seed,omitempty"`
	Restarts int    `json:"restarts,omitempty"`
}

// Save stores plan under its name in one transaction, replacing any previous version.
func (s *PGStore) Save(ctx context.Context, plan *domain.Plan) error {
	if plan == nil || plan.Name == "" {
		return zerr.Wrap(domain.ErrInvalidInput, "plan name must not be empty")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	strategies := make([]strategyRow, len(plan.Run.Strategies))
	for i, sc := range plan.Run.Strategies {
		strategies[i] = strategyRow{Kind: string(sc.Kind), Seed: sc.Seed, Restarts: sc.Restarts}
	}
	strategiesJSON, err := json.Marshal(strategies)
	if err != nil {
		return planError(err, "failed to encode strategies", plan.Name)
	}
	weightsJSON, err := marshalWeights(plan.Run.Weights)
	if err != nil {
		return planError(err, "failed to encode weights", plan.Name)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return planError(err, "failed to begin transaction", plan.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Replace semantics: child rows cascade.
	if _, err := tx.Exec(ctx, `DELETE FROM pareto_plans WHERE name = $1`, plan.Name); err != nil {
		return planError(err, "failed to delete previous plan", plan.Name)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO pareto_plans (name, parallel, tracks, horizon, workers, strategies, weights)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		plan.Name, plan.Run.Parallel, plan.Run.Tracks, plan.Run.Horizon, plan.Run.Workers,
		strategiesJSON, weightsJSON,
	); err != nil {
		return planError(err, "failed to insert plan", plan.Name)
	}

	for i := range plan.Tasks {
		t := &plan.Tasks[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO pareto_tasks (plan_name, id, position, duration, category, priority, energy_cost, deadline)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			plan.Name, t.ID.String(), i, t.Duration, string(t.Category), t.Priority, t.EnergyCost, t.Deadline,
		); err != nil {
			return zerr.With(planError(err, "failed to insert task", plan.Name), "task", t.ID.String())
		}
	}

	// Dependencies go in after every task so forward references resolve.
	for i := range plan.Tasks {
		t := &plan.Tasks[i]
		for j, dep := range t.Dependencies {
			if _, err := tx.Exec(ctx,
				`INSERT INTO pareto_task_dependencies (plan_name, task_id, depends_on, position)
				 VALUES ($1, $2, $3, $4)`,
				plan.Name, t.ID.String(), dep.String(), j,
			); err != nil {
				return zerr.With(planError(err, "failed to insert dependency", plan.Name), "task", t.ID.String())
			}
		}
	}

	for i := range plan.Objectives {
		o := &plan.Objectives[i]
		categories := make([]string, len(o.Rule.Categories))
		for j, c := range o.Rule.Categories {
			categories[j] = string(c)
		}
		ruleWeights := make(map[string]float64, len(o.Rule.Weights))
		for c, w := range o.Rule.Weights {
			ruleWeights[string(c)] = w
		}
		ruleWeightsJSON, err := marshalWeights(ruleWeights)
		if err != nil {
			return zerr.With(planError(err, "failed to encode objective weights", plan.Name), "objective", o.ID)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO pareto_objectives
			 (plan_name, id, position, rule, categories, weights, expression, direction, target)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			plan.Name, o.ID, i, string(o.Rule.Kind), categories, ruleWeightsJSON,
			o.Rule.Expression, directionColumn(o.Direction), o.Target,
		); err != nil {
			return zerr.With(planError(err, "failed to insert objective", plan.Name), "objective", o.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return planError(err, "failed to commit plan", plan.Name)
	}
	return nil
}

// Load retrieves the plan with the given name.
func (s *PGStore) Load(ctx context.Context, name string) (*domain.Plan, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	plan := &domain.Plan{Name: name}

	var strategiesJSON, weightsJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT parallel, tracks, horizon, workers, strategies, weights FROM pareto_plans WHERE name = $1`,
		name,
	).Scan(&plan.Run.Parallel, &plan.Run.Tracks, &plan.Run.Horizon, &plan.Run.Workers, &strategiesJSON, &weightsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, zerr.With(zerr.Wrap(domain.ErrPlanNotFound, "no stored plan with this name"), "plan", name)
	}
	if err != nil {
		return nil, planError(err, "failed to query plan", name)
	}

	if err := decodeRun(&plan.Run, strategiesJSON, weightsJSON); err != nil {
		return nil, planError(err, "failed to decode run configuration", name)
	}
	if err := s.loadTasks(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.loadObjectives(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// List returns the names of all stored plans in ascending order.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT name FROM pareto_plans ORDER BY name`)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list plans")
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, zerr.Wrap(err, "failed to scan plan names")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Delete removes the named plan. No error if it doesn't exist.
func (s *PGStore) Delete(ctx context.Context, name string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM pareto_plans WHERE name = $1`, name); err != nil {
		return planError(err, "failed to delete plan", name)
	}
	return nil
}

func (s *PGStore) loadTasks(ctx context.Context, plan *domain.Plan) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, duration, category, priority, energy_cost, deadline
		 FROM pareto_tasks WHERE plan_name = $1 ORDER BY position`, plan.Name)
	if err != nil {
		return planError(err, "failed to query tasks", plan.Name)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			id, category string
			t            domain.Task
		)
		if err := rows.Scan(&id, &t.Duration, &category, &t.Priority, &t.EnergyCost, &t.Deadline); err != nil {
			return planError(err, "failed to scan task", plan.Name)
		}
		t.ID = domain.NewInternedString(id)
		t.Category = domain.Category(category)
		index[id] = len(plan.Tasks)
		plan.Tasks = append(plan.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return planError(err, "failed to read tasks", plan.Name)
	}

	depRows, err := s.db.Query(ctx,
		`SELECT task_id, depends_on FROM pareto_task_dependencies
		 WHERE plan_name = $1 ORDER BY task_id, position`, plan.Name)
	if err != nil {
		return planError(err, "failed to query dependencies", plan.Name)
	}
	defer depRows.Close()

	for depRows.Next() {
		var taskID, dependsOn string
		if err := depRows.Scan(&taskID, &dependsOn); err != nil {
			return planError(err, "failed to scan dependency", plan.Name)
		}
		i, ok := index[taskID]
		if !ok {
			continue
		}
		plan.Tasks[i].Dependencies = append(plan.Tasks[i].Dependencies, domain.NewInternedString(dependsOn))
	}
	if err := depRows.Err(); err != nil {
		return planError(err, "failed to read dependencies", plan.Name)
	}
	return nil
}

func (s *PGStore) loadObjectives(ctx context.Context, plan *domain.Plan) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, rule, categories, weights, expression, direction, target
		 FROM pareto_objectives WHERE plan_name = $1 ORDER BY position`, plan.Name)
	if err != nil {
		return planError(err, "failed to query objectives", plan.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o           domain.Objective
			rule, dir   string
			categories  []string
			weightsJSON []byte
		)
		if err := rows.Scan(&o.ID, &rule, &categories, &weightsJSON, &o.Rule.Expression, &dir, &o.Target); err != nil {
			return planError(err, "failed to scan objective", plan.Name)
		}
		o.Rule.Kind = domain.RuleKind(rule)
		for _, c := range categories {
			o.Rule.Categories = append(o.Rule.Categories, domain.Category(c))
		}

		var weights map[string]float64
		if err := json.Unmarshal(weightsJSON, &weights); err != nil {
			return zerr.With(planError(err, "failed to decode objective weights", plan.Name), "objective", o.ID)
		}
		if len(weights) > 0 {
			o.Rule.Weights = make(map[domain.Category]float64, len(weights))
			for c, w := range weights {
				o.Rule.Weights[domain.Category(c)] = w
			}
		}

		direction, ok := domain.ParseDirection(dir)
		if !ok {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "stored direction is not recognised"),
				"objective", o.ID), "direction", dir)
		}
		o.Direction = direction
		plan.Objectives = append(plan.Objectives, o)
	}
	if err := rows.Err(); err != nil {
		return planError(err, "failed to read objectives", plan.Name)
	}
	return nil
}

func decodeRun(run *domain.RunConfig, strategiesJSON, weightsJSON []byte) error {
	var strategies []strategyRow
	if err := json.Unmarshal(strategiesJSON, &strategies); err != nil {
		return err
	}
	for _, row := range strategies {
		run.Strategies = append(run.Strategies, domain.StrategyConfig{
			Kind:     domain.StrategyKind(row.Kind),
			Seed:     row.Seed,
			Restarts: row.Restarts,
		})
	}

	var weights map[string]float64
	if err := json.Unmarshal(weightsJSON, &weights); err != nil {
		return err
	}
	if len(weights) > 0 {
		run.Weights = weights
	}
	return nil
}

func marshalWeights(weights map[string]float64) ([]byte, error) {
	if weights == nil {
		weights = map[string]float64{}
	}
	return json.Marshal(weights)
}

// directionColumn stores the default direction as an empty string so that it
// round-trips through domain.ParseDirection.
func directionColumn(d domain.Direction) string {
	if d == domain.DirectionDefault {
		return ""
	}
	return d.String()
}

func planError(err error, msg, name string) error {
	return zerr.With(zerr.Wrap(err, msg), "plan", name)
}
