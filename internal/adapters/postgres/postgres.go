// Package postgres persists named plans in PostgreSQL via pgx.
package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.trai.ch/pareto/internal/core/ports"
)

// DatabaseURLEnv names the connection string used by the CLI and server.
const DatabaseURLEnv = "PARETO_DATABASE_URL"

var _ ports.PlanRepository = (*PGStore)(nil)

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore implements ports.PlanRepository using PostgreSQL.
type PGStore struct {
	db querier

	schemaMu    sync.Mutex
	schemaReady bool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}
