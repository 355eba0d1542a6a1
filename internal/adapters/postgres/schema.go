package postgres

import (
	"context"

	"go.trai.ch/zerr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pareto_plans (
    name       TEXT PRIMARY KEY,
    parallel   BOOLEAN NOT NULL DEFAULT FALSE,
    tracks     INTEGER NOT NULL DEFAULT 0,
    horizon    BIGINT NOT NULL DEFAULT 0,
    workers    INTEGER NOT NULL DEFAULT 0,
    strategies JSONB NOT NULL DEFAULT '[]',
    weights    JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pareto_tasks (
    plan_name   TEXT NOT NULL REFERENCES pareto_plans(name) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    position    INTEGER NOT NULL,
    duration    BIGINT NOT NULL,
    category    TEXT NOT NULL,
    priority    INTEGER NOT NULL DEFAULT 0,
    energy_cost INTEGER NOT NULL DEFAULT 0,
    deadline    BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (plan_name, id)
);

CREATE TABLE IF NOT EXISTS pareto_task_dependencies (
    plan_name  TEXT NOT NULL,
    task_id    TEXT NOT NULL,
    depends_on TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (plan_name, task_id, depends_on),
    FOREIGN KEY (plan_name, task_id) REFERENCES pareto_tasks(plan_name, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pareto_objectives (
    plan_name  TEXT NOT NULL REFERENCES pareto_plans(name) ON DELETE CASCADE,
    id         TEXT NOT NULL,
    position   INTEGER NOT NULL,
    rule       TEXT NOT NULL,
    categories TEXT[] NOT NULL DEFAULT '{}',
    weights    JSONB NOT NULL DEFAULT '{}',
    expression TEXT NOT NULL DEFAULT '',
    direction  TEXT NOT NULL DEFAULT '',
    target     DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (plan_name, id)
);

CREATE INDEX IF NOT EXISTS idx_pareto_tasks_plan      ON pareto_tasks(plan_name, position);
CREATE INDEX IF NOT EXISTS idx_pareto_objectives_plan ON pareto_objectives(plan_name, position);
`

// CreateSchema creates the plan tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return zerr.Wrap(err, "failed to create plan schema")
	}
	return nil
}

// DropSchema drops every plan table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`DROP TABLE IF EXISTS pareto_task_dependencies, pareto_objectives, pareto_tasks, pareto_plans CASCADE;`)
	if err != nil {
		return zerr.Wrap(err, "failed to drop plan schema")
	}
	return nil
}

// ensureSchema creates the tables on first use. A failed attempt is retried
// by the next call.
func (s *PGStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	if err := s.CreateSchema(ctx); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}
