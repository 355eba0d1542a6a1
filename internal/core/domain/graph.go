// Package domain contains the core domain models of the schedule optimizer.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents the dependency graph of a task set.
type Graph struct {
	tasks      map[InternedString]Task
	dependents map[InternedString][]InternedString
	order      []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		dependents: make(map[InternedString][]InternedString),
	}
}

// NewGraphFromTasks adds every task to a fresh graph and validates it.
func NewGraphFromTasks(tasks []Task) (*Graph, error) {
	g := NewGraph()
	for i := range tasks {
		if err := g.AddTask(&tasks[i]); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same identifier already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.ID]; exists {
		return zerr.With(zerr.Wrap(ErrTaskAlreadyExists, "cannot add task"), "task", t.ID.String())
	}
	task := *t
	task.Dependencies = slices.Clone(t.Dependencies)
	g.tasks[t.ID] = task
	g.order = nil
	return nil
}

// Validate checks every task record, resolves dependency references and
// rejects cycles. On success the graph holds a deterministic topological order.
func (g *Graph) Validate() error {
	ids := g.sortedIDs()

	for _, id := range ids {
		task := g.tasks[id]
		if err := validateTask(&task); err != nil {
			return err
		}
	}

	g.dependents = make(map[InternedString][]InternedString, len(g.tasks))
	for _, id := range ids {
		for _, dep := range g.tasks[id].Dependencies {
			if _, ok := g.tasks[dep]; !ok {
				err := zerr.With(zerr.Wrap(ErrMissingDependency, "dangling dependency reference"), "task", id.String())
				return zerr.With(err, "dependency", dep.String())
			}
			if !slices.Contains(g.dependents[dep], id) {
				g.dependents[dep] = append(g.dependents[dep], id)
			}
		}
	}

	order := make([]InternedString, 0, len(g.tasks))
	state := make(map[InternedString]int, len(g.tasks)) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		state[u] = 1
		path = append(path, u)

		for _, dep := range g.tasks[u].Dependencies {
			switch state[dep] {
			case 1:
				return buildCycleError(path, dep)
			case 0:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[u] = 2
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	for _, id := range ids {
		if state[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	g.order = order
	return nil
}

func validateTask(t *Task) error {
	var reason string
	switch {
	case t.ID.IsZero():
		reason = "task identifier is required"
	case t.Duration <= 0:
		reason = "task duration must be positive"
	case t.Category == "":
		reason = "task category is required"
	case t.Deadline < 0:
		reason = "task deadline must not be negative"
	case t.Priority < 0:
		reason = "task priority must not be negative"
	case t.EnergyCost < 0:
		reason = "task energy cost must not be negative"
	default:
		return nil
	}
	err := zerr.With(zerr.Wrap(ErrInvalidInput, reason), "task", t.ID.String())
	return zerr.With(err, "duration", t.Duration)
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []InternedString, dep InternedString) error {
	startIdx := slices.Index(path, dep)
	if startIdx < 0 {
		startIdx = 0
	}
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	err := zerr.With(zerr.Wrap(ErrCyclicDependency, "dependency graph is not acyclic"), "cycle", strings.Join(parts, " -> "))
	return zerr.With(err, "task", dep.String())
}

func (g *Graph) sortedIDs() []InternedString {
	ids := make([]InternedString, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, InternedString.Compare)
	return ids
}

// Walk returns an iterator that yields tasks in topological order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, id := range g.order {
			if !yield(g.tasks[id]) {
				return
			}
		}
	}
}

// Tasks returns every task ordered by identifier.
func (g *Graph) Tasks() []Task {
	ids := g.sortedIDs()
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = g.tasks[id]
	}
	return tasks
}

// GetTask returns the task with the given identifier.
func (g *Graph) GetTask(id InternedString) (Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Dependents returns the identifiers of tasks that depend directly on id,
// ordered by identifier. It assumes Validate() has been called.
func (g *Graph) Dependents(id InternedString) []InternedString {
	deps := slices.Clone(g.dependents[id])
	slices.SortFunc(deps, InternedString.Compare)
	return deps
}

// TotalDuration returns the sum of all task durations.
func (g *Graph) TotalDuration() int64 {
	var total int64
	for _, t := range g.tasks {
		total += t.Duration
	}
	return total
}
