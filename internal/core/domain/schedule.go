package domain

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"slices"

	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

// scheduleNamespace seeds the name-based identifiers of schedules, so that
// two schedules with the same assignments always share an ID.
var scheduleNamespace = uuid.MustParse("6f1c9a52-3c1e-4f7b-9a0e-5d2b8c4e7a13")

// ScoreVector holds one higher-is-better score per objective, in objective order.
type ScoreVector []float64

// Clone returns an independent copy of v.
func (v ScoreVector) Clone() ScoreVector {
	if v == nil {
		return nil
	}
	return slices.Clone(v)
}

// Equal reports whether both vectors have the same length and components.
func (v ScoreVector) Equal(other ScoreVector) bool {
	return slices.Equal(v, other)
}

// Compare orders vectors lexicographically, larger components first.
func (v ScoreVector) Compare(other ScoreVector) int {
	for i := 0; i < len(v) && i < len(other); i++ {
		if c := cmp.Compare(other[i], v[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(v), len(other))
}

// Assignment places one task at a start offset.
// It carries the task facts scoring needs so a schedule is self-contained.
type Assignment struct {
	TaskID   InternedString `json:"task"`
	Category Category       `json:"category"`
	Start    int64          `json:"start"`
	Duration int64          `json:"duration"`
	Deadline int64          `json:"deadline,omitzero"`
	Track    int            `json:"track"`
}

// Finish returns the time the assignment ends.
func (a Assignment) Finish() int64 {
	return a.Start + a.Duration
}

// Schedule is an ordered sequence of assignments produced by one strategy variant.
// Once scored it must not be mutated.
type Schedule struct {
	ID          uuid.UUID
	Strategy    string
	Assignments []Assignment
	Span        int64

	scores ScoreVector
	scored bool
}

// NewSchedule builds a schedule from assignments, ordering them canonically by
// start offset, then track, then task identifier, and deriving its span and ID.
func NewSchedule(strategy string, assignments []Assignment) *Schedule {
	ordered := slices.Clone(assignments)
	slices.SortStableFunc(ordered, func(a, b Assignment) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Track, b.Track); c != 0 {
			return c
		}
		return a.TaskID.Compare(b.TaskID)
	})

	var span int64
	for _, a := range ordered {
		span = max(span, a.Finish())
	}

	return &Schedule{
		ID:          scheduleID(ordered),
		Strategy:    strategy,
		Assignments: ordered,
		Span:        span,
	}
}

// scheduleID derives a name-based UUID from the (task, start) sequence.
func scheduleID(assignments []Assignment) uuid.UUID {
	keys := make([]Assignment, len(assignments))
	copy(keys, assignments)
	slices.SortFunc(keys, func(a, b Assignment) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return a.TaskID.Compare(b.TaskID)
	})

	buf := make([]byte, 0, len(keys)*24)
	for _, a := range keys {
		buf = append(buf, a.TaskID.String()...)
		buf = append(buf, 0)
		buf = binary.BigEndian.AppendUint64(buf, uint64(a.Start)) //nolint:gosec // offsets are non-negative
	}
	return uuid.NewSHA1(scheduleNamespace, buf)
}

// SetScores caches the score vector on the schedule. It may be called once.
func (s *Schedule) SetScores(v ScoreVector) error {
	if s.scored {
		return zerr.With(zerr.Wrap(ErrAlreadyScored, "cannot rescore schedule"), "schedule", s.ID.String())
	}
	s.scores = v.Clone()
	s.scored = true
	return nil
}

// Scores returns a copy of the cached score vector.
func (s *Schedule) Scores() ScoreVector {
	return s.scores.Clone()
}

// Scored reports whether SetScores has been called.
func (s *Schedule) Scored() bool {
	return s.scored
}

// SameAssignments reports whether both schedules place the same tasks at the same offsets.
func (s *Schedule) SameAssignments(other *Schedule) bool {
	return s.ID == other.ID
}

// Assignment returns the assignment for the given task, if present.
func (s *Schedule) Assignment(id InternedString) (Assignment, bool) {
	for _, a := range s.Assignments {
		if a.TaskID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

type scheduleJSON struct {
	ID          uuid.UUID    `json:"id"`
	Strategy    string       `json:"strategy"`
	Assignments []Assignment `json:"assignments"`
	Span        int64        `json:"span"`
	Scores      ScoreVector  `json:"scores"`
}

// MarshalJSON implements json.Marshaler.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	assignments := s.Assignments
	if assignments == nil {
		assignments = []Assignment{}
	}
	scores := s.scores
	if scores == nil {
		scores = ScoreVector{}
	}
	return json.Marshal(scheduleJSON{
		ID:          s.ID,
		Strategy:    s.Strategy,
		Assignments: assignments,
		Span:        s.Span,
		Scores:      scores,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A decoded schedule counts as scored.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw scheduleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Strategy = raw.Strategy
	s.Assignments = raw.Assignments
	s.Span = raw.Span
	s.scores = raw.Scores
	s.scored = true
	return nil
}
