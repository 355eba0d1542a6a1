package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConnRefused = errors.New("connection refused")

// flakyDB fails its first failures Exec calls and honours cancelled contexts.
type flakyDB struct {
	querier
	failures int
	execs    int
}

func (f *flakyDB) Exec(ctx context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	f.execs++
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	if f.execs <= f.failures {
		return pgconn.CommandTag{}, errConnRefused
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestEnsureSchema_RetriesAfterCancelledContext(t *testing.T) {
	db := &flakyDB{}
	store := &PGStore{db: db}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.ensureSchema(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, store.ensureSchema(context.Background()))
	require.NoError(t, store.ensureSchema(context.Background()))
	assert.Equal(t, 2, db.execs, "the schema is not recreated once it exists")
}

func TestEnsureSchema_RetriesAfterOutage(t *testing.T) {
	db := &flakyDB{failures: 2}
	store := &PGStore{db: db}

	for range 2 {
		err := store.ensureSchema(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errConnRefused)
	}

	require.NoError(t, store.ensureSchema(context.Background()))
	assert.Equal(t, 3, db.execs)
}
