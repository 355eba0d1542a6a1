package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/core/domain"
)

func assign(id string, start, duration int64, track int) domain.Assignment {
	return domain.Assignment{
		TaskID:   domain.NewInternedString(id),
		Category: domain.CategoryWork,
		Start:    start,
		Duration: duration,
		Track:    track,
	}
}

func TestNewSchedule_CanonicalOrder(t *testing.T) {
	s := domain.NewSchedule("priority", []domain.Assignment{
		assign("c", 10, 5, 0),
		assign("b", 0, 10, 1),
		assign("a", 0, 10, 0),
	})

	ids := make([]string, len(s.Assignments))
	for i, a := range s.Assignments {
		ids[i] = a.TaskID.String()
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, int64(15), s.Span)
	assert.Equal(t, "priority", s.Strategy)
	assert.False(t, s.Scored())
}

func TestNewSchedule_Identity(t *testing.T) {
	base := []domain.Assignment{assign("a", 0, 10, 0), assign("b", 10, 5, 0)}
	reordered := []domain.Assignment{base[1], base[0]}
	otherTrack := []domain.Assignment{assign("a", 0, 10, 1), assign("b", 10, 5, 1)}
	shifted := []domain.Assignment{assign("a", 0, 10, 0), assign("b", 11, 5, 0)}

	s := domain.NewSchedule("priority", base)

	assert.Equal(t, s.ID, domain.NewSchedule("density", reordered).ID, "strategy and input order do not matter")
	assert.Equal(t, s.ID, domain.NewSchedule("priority", otherTrack).ID, "tracks are not part of the identity")
	assert.NotEqual(t, s.ID, domain.NewSchedule("priority", shifted).ID)
	assert.True(t, s.SameAssignments(domain.NewSchedule("random#1", reordered)))

	empty := domain.NewSchedule("empty", nil)
	assert.Equal(t, empty.ID, domain.NewSchedule("other", []domain.Assignment{}).ID)
	assert.Zero(t, empty.Span)
}

func TestNewSchedule_DoesNotAliasInput(t *testing.T) {
	in := []domain.Assignment{assign("b", 5, 1, 0), assign("a", 0, 1, 0)}
	s := domain.NewSchedule("priority", in)

	assert.Equal(t, "b", in[0].TaskID.String())
	in[1].Start = 99
	assert.Equal(t, int64(0), s.Assignments[0].Start)
}

func TestSchedule_SetScores(t *testing.T) {
	s := domain.NewSchedule("priority", []domain.Assignment{assign("a", 0, 1, 0)})
	scores := domain.ScoreVector{1, 2}

	require.NoError(t, s.SetScores(scores))
	assert.True(t, s.Scored())

	scores[0] = 42
	got := s.Scores()
	assert.Equal(t, domain.ScoreVector{1, 2}, got)
	got[1] = 42
	assert.Equal(t, domain.ScoreVector{1, 2}, s.Scores())

	err := s.SetScores(domain.ScoreVector{3, 4})
	require.ErrorIs(t, err, domain.ErrAlreadyScored)
	assert.Equal(t, s.ID.String(), domain.Metadata(err)["schedule"])
	assert.Equal(t, domain.KindInternal, domain.Kind(err))
}

func TestSchedule_Assignment(t *testing.T) {
	s := domain.NewSchedule("priority", []domain.Assignment{assign("a", 0, 3, 0), assign("b", 3, 2, 0)})

	b, ok := s.Assignment(domain.NewInternedString("b"))
	require.True(t, ok)
	assert.Equal(t, int64(5), b.Finish())

	_, ok = s.Assignment(domain.NewInternedString("z"))
	assert.False(t, ok)
}

func TestSchedule_JSON(t *testing.T) {
	s := domain.NewSchedule("random#7", []domain.Assignment{assign("a", 0, 3, 0)})
	require.NoError(t, s.SetScores(domain.ScoreVector{0.5}))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"strategy":"random#7"`)
	assert.Contains(t, string(data), `"scores":[0.5]`)
	assert.NotContains(t, string(data), `"deadline"`)

	var decoded domain.Schedule
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.ID, decoded.ID)
	assert.True(t, decoded.Scored(), "decoded schedules keep their scores")
	assert.Equal(t, s.Scores(), decoded.Scores())
	assert.Equal(t, s.Assignments, decoded.Assignments)

	unscored, err := json.Marshal(domain.NewSchedule("empty", nil))
	require.NoError(t, err)
	assert.Contains(t, string(unscored), `"assignments":[]`)
	assert.Contains(t, string(unscored), `"scores":[]`)
}

func TestScoreVector_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.ScoreVector
		want int
	}{
		{name: "equal", a: domain.ScoreVector{1, 2}, b: domain.ScoreVector{1, 2}, want: 0},
		{name: "larger first component sorts first", a: domain.ScoreVector{2, 0}, b: domain.ScoreVector{1, 9}, want: -1},
		{name: "tie broken by later component", a: domain.ScoreVector{1, 1}, b: domain.ScoreVector{1, 2}, want: 1},
		{name: "shorter prefix sorts first", a: domain.ScoreVector{1}, b: domain.ScoreVector{1, 0}, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}

	assert.True(t, domain.ScoreVector{1, 2}.Equal(domain.ScoreVector{1, 2}))
	assert.False(t, domain.ScoreVector{1}.Equal(domain.ScoreVector{1, 2}))
	assert.Nil(t, domain.ScoreVector(nil).Clone())
}
