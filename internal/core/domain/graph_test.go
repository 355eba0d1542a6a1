package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/core/domain"
)

func task(id string, duration int64, deps ...string) domain.Task {
	return domain.Task{
		ID:           domain.NewInternedString(id),
		Duration:     duration,
		Category:     domain.CategoryWork,
		Dependencies: domain.InternAll(deps),
	}
}

func walkIDs(g *domain.Graph) []string {
	var ids []string
	for t := range g.Walk() {
		ids = append(ids, t.ID.String())
	}
	return ids
}

func TestGraph_AddTask(t *testing.T) {
	g := domain.NewGraph()
	a := task("a", 10)

	require.NoError(t, g.AddTask(&a))

	err := g.AddTask(&a)
	require.ErrorIs(t, err, domain.ErrTaskAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "a", domain.Metadata(err)["task"])
}

func TestGraph_AddTaskCopiesDependencies(t *testing.T) {
	deps := domain.InternAll([]string{"a"})
	b := domain.Task{ID: domain.NewInternedString("b"), Duration: 5, Category: domain.CategoryWork, Dependencies: deps}
	a := task("a", 5)

	g, err := domain.NewGraphFromTasks([]domain.Task{a, b})
	require.NoError(t, err)

	deps[0] = domain.NewInternedString("mutated")
	got, ok := g.GetTask(domain.NewInternedString("b"))
	require.True(t, ok)
	assert.Equal(t, "a", got.Dependencies[0].String())
}

func TestGraph_Validate_Cycle(t *testing.T) {
	_, err := domain.NewGraphFromTasks([]domain.Task{
		task("A", 1, "B"),
		task("B", 1, "A"),
	})
	require.ErrorIs(t, err, domain.ErrCyclicDependency)

	meta := domain.Metadata(err)
	assert.Equal(t, "A -> B -> A", meta["cycle"])
	assert.Equal(t, domain.KindCyclicDependency, domain.Kind(err))
}

func TestGraph_Validate_SelfLoop(t *testing.T) {
	_, err := domain.NewGraphFromTasks([]domain.Task{task("solo", 1, "solo")})
	require.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Equal(t, "solo -> solo", domain.Metadata(err)["cycle"])
}

func TestGraph_Validate_MissingDependency(t *testing.T) {
	_, err := domain.NewGraphFromTasks([]domain.Task{task("a", 1, "ghost")})
	require.ErrorIs(t, err, domain.ErrMissingDependency)

	meta := domain.Metadata(err)
	assert.Equal(t, "a", meta["task"])
	assert.Equal(t, "ghost", meta["dependency"])
	assert.True(t, domain.IsStructural(err))
}

func TestGraph_Validate_InvalidTask(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Task)
	}{
		{name: "missing id", mutate: func(t *domain.Task) { t.ID = domain.InternedString{} }},
		{name: "zero duration", mutate: func(t *domain.Task) { t.Duration = 0 }},
		{name: "negative duration", mutate: func(t *domain.Task) { t.Duration = -5 }},
		{name: "missing category", mutate: func(t *domain.Task) { t.Category = "" }},
		{name: "negative deadline", mutate: func(t *domain.Task) { t.Deadline = -1 }},
		{name: "negative priority", mutate: func(t *domain.Task) { t.Priority = -1 }},
		{name: "negative energy", mutate: func(t *domain.Task) { t.EnergyCost = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := task("bad", 10)
			tt.mutate(&bad)

			_, err := domain.NewGraphFromTasks([]domain.Task{bad})
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, domain.KindInvalidInput, domain.Kind(err))
		})
	}
}

func TestGraph_Walk(t *testing.T) {
	// A -> B -> C
	g, err := domain.NewGraphFromTasks([]domain.Task{
		task("A", 1, "B"),
		task("B", 1, "C"),
		task("C", 1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B", "A"}, walkIDs(g))
}

func TestGraph_WalkIsDeterministic(t *testing.T) {
	tasks := []domain.Task{
		task("d", 1, "b", "c"),
		task("c", 1, "a"),
		task("b", 1, "a"),
		task("a", 1),
		task("e", 1),
	}
	reversed := []domain.Task{tasks[4], tasks[3], tasks[2], tasks[1], tasks[0]}

	g1, err := domain.NewGraphFromTasks(tasks)
	require.NoError(t, err)
	g2, err := domain.NewGraphFromTasks(reversed)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, walkIDs(g1))
	assert.Equal(t, walkIDs(g1), walkIDs(g2))
}

func TestGraph_WalkStopsEarly(t *testing.T) {
	g, err := domain.NewGraphFromTasks([]domain.Task{task("a", 1), task("b", 1), task("c", 1)})
	require.NoError(t, err)

	var seen []string
	for tk := range g.Walk() {
		seen = append(seen, tk.ID.String())
		if len(seen) == 2 {
			break
		}
	}
	assert.Len(t, seen, 2)
}

func TestGraph_Queries(t *testing.T) {
	g, err := domain.NewGraphFromTasks([]domain.Task{
		task("write", 30),
		task("review", 15, "write"),
		task("publish", 5, "write", "review"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, g.TaskCount())
	assert.Equal(t, int64(50), g.TotalDuration())
	assert.Equal(t,
		[]domain.InternedString{domain.NewInternedString("publish"), domain.NewInternedString("review")},
		g.Dependents(domain.NewInternedString("write")))
	assert.Empty(t, g.Dependents(domain.NewInternedString("publish")))

	ids := make([]string, 0, 3)
	for _, tk := range g.Tasks() {
		ids = append(ids, tk.ID.String())
	}
	assert.Equal(t, []string{"publish", "review", "write"}, ids)

	_, ok := g.GetTask(domain.NewInternedString("missing"))
	assert.False(t, ok)
}

func TestGraph_Empty(t *testing.T) {
	g, err := domain.NewGraphFromTasks(nil)
	require.NoError(t, err)
	assert.Zero(t, g.TaskCount())
	assert.Empty(t, walkIDs(g))
}
