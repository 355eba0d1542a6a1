package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/adapters/watcher"
	"go.trai.ch/pareto/internal/core/ports"
)

func TestWatcher_ReportsPlanChanges(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "pareto.yaml")
	require.NoError(t, os.WriteFile(plan, []byte("version: \"1\"\n"), 0o600))

	w, err := watcher.NewWatcher(nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, plan))
	defer func() { _ = w.Stop() }()

	events := make(chan ports.WatchEvent, 8)
	go func() {
		for ev := range w.Events() {
			events <- ev
		}
		close(events)
	}()

	// Changes to other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(plan, []byte("version: \"1\"\nname: week\n"), 0o600))

	select {
	case ev := <-events:
		abs, err := filepath.Abs(plan)
		require.NoError(t, err)
		assert.Equal(t, abs, filepath.Clean(ev.Path))
		assert.Contains(t, []ports.WatchOp{ports.OpWrite, ports.OpCreate}, ev.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the plan file")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "events end with the context")
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := watcher.NewWatcher(nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing", "pareto.yaml"))
	require.Error(t, err)
}
