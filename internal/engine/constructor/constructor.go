// Package constructor builds feasible schedules from a task dependency graph.
package constructor

import (
	"slices"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// Params configures how tasks are laid out in time.
type Params struct {
	// Parallel lets independent tasks overlap on separate tracks.
	Parallel bool
	// Tracks bounds the number of parallel tracks. Zero means unbounded.
	Tracks int
	// Horizon, when positive, is the latest allowed finish time.
	Horizon int64
}

// ParamsFromRun extracts the layout parameters of a run configuration.
func ParamsFromRun(run *domain.RunConfig) Params {
	return Params{
		Parallel: run.Parallel,
		Tracks:   run.Tracks,
		Horizon:  run.Horizon,
	}
}

// State is the view of a construction in progress offered to strategies.
type State struct {
	// Placed is the number of tasks already assigned.
	Placed int
	// Now is the earliest time a track becomes free.
	Now int64
	// LastCategory is the category of the most recently placed task.
	LastCategory domain.Category
	// HasLast reports whether any task has been placed yet.
	HasLast bool
}

// Construct places every task of graph using strategy to order schedulable
// tasks. Each task starts no earlier than all of its dependencies finish.
//
// It returns domain.ErrCyclicDependency if the dependencies never release
// some task and domain.ErrInfeasibleInput if a task would finish past the horizon.
func Construct(graph *domain.Graph, strategy Strategy, params Params) (*domain.Schedule, error) {
	b, err := newBuild(graph, params)
	if err != nil {
		return nil, err
	}
	if tb, ok := strategy.(TrackBalancer); ok {
		b.tracks.balance = tb.BalanceTracks()
	}

	for len(b.ready) > 0 {
		b.state.Now = b.tracks.earliest()
		idx := strategy.Pick(b.ready, &b.state)
		if idx < 0 || idx >= len(b.ready) {
			idx = 0
		}
		task := b.ready[idx]
		b.ready = slices.Delete(b.ready, idx, idx+1)

		if err := b.place(&task); err != nil {
			return nil, zerr.With(err, "strategy", strategy.Name())
		}
	}

	if len(b.assignments) != len(b.tasks) {
		return nil, b.cycleError()
	}

	return domain.NewSchedule(strategy.Name(), b.assignments), nil
}

type build struct {
	params      Params
	tasks       map[domain.InternedString]domain.Task
	inDegree    map[domain.InternedString]int
	dependents  map[domain.InternedString][]domain.InternedString
	finish      map[domain.InternedString]int64
	ready       []domain.Task
	tracks      *tracks
	assignments []domain.Assignment
	state       State
}

func newBuild(graph *domain.Graph, params Params) (*build, error) {
	all := graph.Tasks()
	b := &build{
		params:      params,
		tasks:       make(map[domain.InternedString]domain.Task, len(all)),
		inDegree:    make(map[domain.InternedString]int, len(all)),
		dependents:  make(map[domain.InternedString][]domain.InternedString, len(all)),
		finish:      make(map[domain.InternedString]int64, len(all)),
		tracks:      newTracks(params),
		assignments: make([]domain.Assignment, 0, len(all)),
	}
	for _, t := range all {
		b.tasks[t.ID] = t
	}

	for _, t := range all {
		seen := make(map[domain.InternedString]bool, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := b.tasks[dep]; !ok {
				err := zerr.With(zerr.Wrap(domain.ErrMissingDependency, "dangling dependency reference"), "task", t.ID.String())
				return nil, zerr.With(err, "dependency", dep.String())
			}
			b.inDegree[t.ID]++
			b.dependents[dep] = append(b.dependents[dep], t.ID)
		}
	}

	for _, t := range all {
		if b.inDegree[t.ID] == 0 {
			b.ready = append(b.ready, t)
		}
	}
	return b, nil
}

// place assigns task to a track and releases its dependents.
func (b *build) place(task *domain.Task) error {
	var earliest int64
	for _, dep := range task.Dependencies {
		earliest = max(earliest, b.finish[dep])
	}

	track, start := b.tracks.assign(earliest, task.Duration)
	end := start + task.Duration
	if b.params.Horizon > 0 && end > b.params.Horizon {
		err := zerr.With(zerr.Wrap(domain.ErrInfeasibleInput, "task finishes past the horizon"), "task", task.ID.String())
		err = zerr.With(err, "finish", end)
		return zerr.With(err, "horizon", b.params.Horizon)
	}

	b.finish[task.ID] = end
	b.assignments = append(b.assignments, domain.Assignment{
		TaskID:   task.ID,
		Category: task.Category,
		Start:    start,
		Duration: task.Duration,
		Deadline: task.Deadline,
		Track:    track,
	})
	b.state.Placed++
	b.state.LastCategory = task.Category
	b.state.HasLast = true

	for _, id := range b.dependents[task.ID] {
		b.inDegree[id]--
		if b.inDegree[id] == 0 {
			b.release(b.tasks[id])
		}
	}
	return nil
}

// release inserts t into the ready list, keeping it ordered by identifier.
func (b *build) release(t domain.Task) {
	idx, _ := slices.BinarySearchFunc(b.ready, t.ID, func(e domain.Task, id domain.InternedString) int {
		return e.ID.Compare(id)
	})
	b.ready = slices.Insert(b.ready, idx, t)
}

func (b *build) cycleError() error {
	var blocked []string
	for id, degree := range b.inDegree {
		if degree > 0 {
			blocked = append(blocked, id.String())
		}
	}
	slices.Sort(blocked)
	err := zerr.Wrap(domain.ErrCyclicDependency, "dependencies never release every task")
	return zerr.With(err, "blocked", blocked)
}

// tracks tracks when each parallel track becomes free and how much work it
// carries.
type tracks struct {
	parallel bool
	balance  bool
	limit    int
	free     []int64
	load     []int64
}

func newTracks(params Params) *tracks {
	return &tracks{
		parallel: params.Parallel,
		limit:    params.Tracks,
		free:     []int64{0},
		load:     []int64{0},
	}
}

func (t *tracks) earliest() int64 {
	return slices.Min(t.free)
}

// assign reserves duration time units on a track for a task that may start at
// ready, returning the track index and the start offset.
func (t *tracks) assign(ready, duration int64) (int, int64) {
	if !t.parallel {
		return t.reserve(0, ready, duration)
	}

	idle := -1
	for i, free := range t.free {
		if free > ready {
			continue
		}
		if idle < 0 || (t.balance && t.load[i] < t.load[idle]) {
			idle = i
		}
		if !t.balance {
			break
		}
	}
	if idle >= 0 {
		return t.reserve(idle, ready, duration)
	}

	if t.limit <= 0 || len(t.free) < t.limit {
		t.free = append(t.free, 0)
		t.load = append(t.load, 0)
		return t.reserve(len(t.free)-1, ready, duration)
	}

	best := 0
	for i, free := range t.free {
		if free < t.free[best] || (t.balance && free == t.free[best] && t.load[i] < t.load[best]) {
			best = i
		}
	}
	return t.reserve(best, ready, duration)
}

func (t *tracks) reserve(track int, ready, duration int64) (int, int64) {
	start := max(t.free[track], ready)
	t.free[track] = start + duration
	t.load[track] += duration
	return track, start
}
