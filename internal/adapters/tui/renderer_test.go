package tui_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/adapters/tui"
	"go.trai.ch/pareto/internal/core/domain"
)

func newTestRenderer(stdout io.Writer) *tui.Renderer {
	return tui.NewRenderer(
		stdout,
		io.Discard,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	renderer := newTestRenderer(io.Discard)

	require.NoError(t, renderer.Start(context.Background()))
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())
}

func TestRenderer_ForwardsEvents(t *testing.T) {
	renderer := newTestRenderer(io.Discard)
	require.NoError(t, renderer.Start(context.Background()))

	renderer.OnPlanEmit([]string{"priority", "random#3"})
	renderer.OnUnitComplete("priority", "admitted", nil)
	renderer.OnUnitComplete("random#3", "failed", errors.New("overran horizon"))

	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())

	m := renderer.Model()
	require.Len(t, m.Units, 2)
	assert.Equal(t, tui.StatusAdmitted, m.Units[0].Status)
	assert.Equal(t, tui.StatusFailed, m.Units[1].Status)
	assert.Equal(t, 2, m.Completed)
}

func TestRenderer_OnResult(t *testing.T) {
	s := domain.NewSchedule("priority", []domain.Assignment{{
		TaskID:   domain.NewInternedString("run"),
		Category: domain.CategoryHealth,
		Duration: 30,
	}})
	require.NoError(t, s.SetScores(domain.ScoreVector{30}))

	stdout := new(bytes.Buffer)
	renderer := newTestRenderer(stdout)
	require.NoError(t, renderer.OnResult(&domain.Result{
		Frontier:   []*domain.Schedule{s},
		Objectives: []string{"fitness"},
		Warnings:   []domain.Warning{},
		Candidates: 1,
	}))

	out := stdout.String()
	assert.Contains(t, out, "Frontier: 1 schedule(s) from 1 candidate(s), 0 dominated")
	assert.Contains(t, out, "fitness")
	assert.Contains(t, out, "run")
}
