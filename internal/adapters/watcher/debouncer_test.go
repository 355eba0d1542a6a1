package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pareto/internal/adapters/watcher"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/plans/week.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/plans/week.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/plans/week.yaml~")
		synctest.Wait()
		assert.Empty(t, rec.snapshot(), "the window restarts on every event")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, [][]string{{"/plans/week.yaml", "/plans/week.yaml~"}}, rec.snapshot())
	})
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("a")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		d.Add("b")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"a"}, {"b"}}, rec.snapshot())
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(time.Hour, rec.record)

		d.Add("a")
		d.Flush()
		assert.Equal(t, [][]string{{"a"}}, rec.snapshot())

		d.Flush()
		time.Sleep(2 * time.Hour)
		synctest.Wait()
		assert.Len(t, rec.snapshot(), 1, "nothing left to deliver")
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Add("a")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
