package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/adapters/cas"
	"go.trai.ch/pareto/internal/core/domain"
)

func sampleResult(t *testing.T) *domain.Result {
	t.Helper()
	s := domain.NewSchedule("priority", []domain.Assignment{
		{TaskID: domain.NewInternedString("run"), Category: domain.CategoryHealth, Duration: 30},
		{TaskID: domain.NewInternedString("ship"), Category: domain.CategoryWork, Start: 30, Duration: 90, Deadline: 200},
	})
	require.NoError(t, s.SetScores(domain.ScoreVector{30, 0}))
	return &domain.Result{
		Frontier:   []*domain.Schedule{s},
		Objectives: []string{"fitness", "late"},
		Warnings: []domain.Warning{{
			Strategy: domain.StrategyRandom, Variant: "random#3",
			Kind: domain.KindInfeasibleInput, Message: "horizon exceeded",
		}},
		Candidates: 4,
		Dominated:  2,
	}
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	store := cas.NewStore(t.TempDir())
	want := sampleResult(t)
	require.NoError(t, store.Put("0123456789abcdef", want))

	got, err := store.Get("0123456789abcdef")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Cached)
	assert.False(t, want.Cached, "Put does not mutate its argument")
	assert.Equal(t, want.Objectives, got.Objectives)
	assert.Equal(t, want.Candidates, got.Candidates)
	assert.Equal(t, want.Dominated, got.Dominated)
	assert.Equal(t, want.Warnings, got.Warnings)

	require.Len(t, got.Frontier, 1)
	assert.Equal(t, want.Frontier[0].ID, got.Frontier[0].ID)
	assert.Equal(t, want.Frontier[0].Assignments, got.Frontier[0].Assignments)
	assert.Equal(t, want.Frontier[0].Scores(), got.Frontier[0].Scores())
	assert.True(t, got.Frontier[0].Scored())

	assert.FileExists(t, filepath.Join(store.Root(), "01", "0123456789abcdef.json"))
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	got, err := cas.NewStore(t.TempDir()).Get("ffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PutReplaces(t *testing.T) {
	t.Parallel()

	store := cas.NewStore(t.TempDir())
	first := sampleResult(t)
	require.NoError(t, store.Put("aaaaaaaaaaaaaaaa", first))

	second := sampleResult(t)
	second.Candidates = 9
	second.Warnings = nil
	require.NoError(t, store.Put("aaaaaaaaaaaaaaaa", second))

	got, err := store.Get("aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Candidates)
	assert.Empty(t, got.Warnings)
	assert.NotNil(t, got.Warnings)

	entries, err := os.ReadDir(filepath.Join(store.Root(), "aa"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestStore_GetCorrupt(t *testing.T) {
	t.Parallel()

	store := cas.NewStore(t.TempDir())
	require.NoError(t, store.Put("bbbbbbbbbbbbbbbb", sampleResult(t)))

	path := filepath.Join(store.Root(), "bb", "bbbbbbbbbbbbbbbb.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := store.Get("bbbbbbbbbbbbbbbb")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnmarshalFailed)
	assert.Equal(t, "bbbbbbbbbbbbbbbb", domain.Metadata(err)["fingerprint"])
}

func TestStore_PutCreateFailed(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("file in the way"), 0o600))

	err := cas.NewStore(root).Put("cccccccccccccccc", sampleResult(t))
	assert.ErrorIs(t, err, domain.ErrStoreCreateFailed)
}

func TestStore_MalformedFingerprint(t *testing.T) {
	t.Parallel()

	store := cas.NewStore(t.TempDir())
	for _, fp := range []string{"", "ab", "../escape", "a/b/c"} {
		_, err := store.Get(fp)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, fp)
		assert.ErrorIs(t, store.Put(fp, sampleResult(t)), domain.ErrInvalidInput, fp)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(cas.CacheDirEnv, "/tmp/pareto-cache")
	assert.Equal(t, "/tmp/pareto-cache", cas.DefaultDir())

	t.Setenv(cas.CacheDirEnv, "")
	assert.Equal(t, filepath.Join("pareto", "results"),
		filepath.Join(filepath.Base(filepath.Dir(cas.DefaultDir())), filepath.Base(cas.DefaultDir())))
}
