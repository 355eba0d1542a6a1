package table_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/ui/table"
)

func schedule(t *testing.T, scores ...float64) *domain.Schedule {
	t.Helper()
	s := domain.NewSchedule("priority", []domain.Assignment{
		{TaskID: domain.NewInternedString("run"), Category: domain.CategoryHealth, Duration: 30},
		{TaskID: domain.NewInternedString("ship"), Category: domain.CategoryWork, Start: 30, Duration: 90, Track: 1},
	})
	require.NoError(t, s.SetScores(scores))
	return s
}

func TestFrontier(t *testing.T) {
	s := schedule(t, 30, -12.5)
	out := table.Frontier(&domain.Result{
		Frontier:   []*domain.Schedule{s},
		Objectives: []string{"fitness", "late"},
	})

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 3)
	for _, h := range []string{"#", "schedule", "strategy", "span", "fitness", "late"} {
		assert.Contains(t, lines[1], h)
	}
	assert.Contains(t, out, table.ShortID(s))
	assert.Contains(t, out, "priority")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "-12.5")
}

func TestAssignments(t *testing.T) {
	out := table.Assignments(schedule(t, 1))
	for _, want := range []string{"task", "run", "health", "ship", "work", "120"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0", table.FormatScore(math.Copysign(0, -1)))
	assert.Equal(t, "30", table.FormatScore(30))
	assert.Equal(t, "0.25", table.FormatScore(0.25))
	assert.Equal(t, "-3.5", table.FormatScore(-3.5))
}
