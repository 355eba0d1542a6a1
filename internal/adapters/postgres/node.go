package postgres

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the plan repository Graft node.
const NodeID graft.ID = "adapter.plan_repository"

func init() {
	graft.Register(graft.Node[ports.PlanRepository]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.PlanRepository, error) {
			url := os.Getenv(DatabaseURLEnv)
			if url == "" {
				return Unavailable(), nil
			}
			// The pool dials lazily, so commands that never touch the
			// repository do not need a reachable database.
			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return nil, zerr.Wrap(err, "failed to configure database pool")
			}
			return New(pool), nil
		},
	})
}

// unavailable is the repository used when no database is configured.
type unavailable struct{}

// Unavailable returns a repository whose every operation fails with
// domain.ErrRepositoryUnavailable.
func Unavailable() ports.PlanRepository {
	return unavailable{}
}

func (unavailable) err() error {
	return zerr.With(zerr.Wrap(domain.ErrRepositoryUnavailable, "no database configured"), "env", DatabaseURLEnv)
}

func (u unavailable) Save(context.Context, *domain.Plan) error { return u.err() }

func (u unavailable) Load(context.Context, string) (*domain.Plan, error) { return nil, u.err() }

func (u unavailable) List(context.Context) ([]string, error) { return nil, u.err() }
