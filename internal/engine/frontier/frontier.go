// Package frontier maintains sets of mutually non-dominated schedules.
package frontier

import (
	"bytes"
	"slices"
	"sync"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// Outcome describes what an insertion did to the frontier.
type Outcome int

const (
	// Rejected means an existing member dominates the candidate.
	Rejected Outcome = iota
	// Admitted means the candidate joined the frontier.
	Admitted
	// Duplicate means a member with the same assignments and scores is already present.
	Duplicate
)

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case Duplicate:
		return "duplicate"
	default:
		return "rejected"
	}
}

// Insertion reports the result of one Insert call.
type Insertion struct {
	Outcome Outcome
	// Evicted is the number of members the candidate dominated and removed.
	Evicted int
}

// Stats counts what happened to every candidate offered to a frontier.
type Stats struct {
	Offered    int
	Admitted   int
	Rejected   int
	Duplicates int
	Evicted    int
}

// Dominated returns the number of candidates that did not survive, either
// rejected on arrival or evicted later.
func (s Stats) Dominated() int {
	return s.Rejected + s.Evicted
}

type member struct {
	schedule *domain.Schedule
	scores   domain.ScoreVector
}

// Frontier is a set of scored schedules in which no member dominates another.
// All methods are safe for concurrent use; inserts are serialized.
type Frontier struct {
	mu        sync.Mutex
	members   []member
	width     int
	finalized bool
	stats     Stats
}

// New creates an empty frontier for score vectors of the given width.
func New(width int) *Frontier {
	return &Frontier{width: width}
}

// Dominates reports whether a is at least as good as b on every objective
// and strictly better on at least one. Vectors of different lengths never dominate.
func Dominates(a, b domain.ScoreVector) bool {
	if len(a) != len(b) {
		return false
	}
	strictly := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strictly = true
		}
	}
	return strictly
}

// Insert offers a scored schedule to the frontier. The frontier takes
// ownership of an admitted schedule.
func (f *Frontier) Insert(s *domain.Schedule) (Insertion, error) {
	if !s.Scored() {
		return Insertion{}, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "schedule is not scored"), "schedule", s.ID.String())
	}
	scores := s.Scores()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.finalized {
		return Insertion{}, zerr.Wrap(domain.ErrFrontierFinalized, "cannot insert schedule")
	}
	if len(scores) != f.width {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidInput, "score vector has the wrong length"), "schedule", s.ID.String())
		return Insertion{}, zerr.With(err, "length", len(scores))
	}

	f.stats.Offered++
	for _, m := range f.members {
		if Dominates(m.scores, scores) {
			f.stats.Rejected++
			return Insertion{Outcome: Rejected}, nil
		}
		if m.schedule.ID == s.ID && m.scores.Equal(scores) {
			f.stats.Duplicates++
			return Insertion{Outcome: Duplicate}, nil
		}
	}

	before := len(f.members)
	f.members = slices.DeleteFunc(f.members, func(m member) bool {
		return Dominates(scores, m.scores)
	})
	evicted := before - len(f.members)

	f.members = append(f.members, member{schedule: s, scores: scores})
	f.stats.Admitted++
	f.stats.Evicted += evicted
	return Insertion{Outcome: Admitted, Evicted: evicted}, nil
}

// Len returns the number of members.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members)
}

// Stats returns the insertion counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// Snapshot returns the current members in canonical order without finalizing.
func (f *Frontier) Snapshot() []*domain.Schedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ordered()
}

// Finalize makes the frontier read-only and returns its members in canonical
// order: score vectors descending lexicographically, ties by schedule ID.
func (f *Frontier) Finalize() []*domain.Schedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = true
	return f.ordered()
}

func (f *Frontier) ordered() []*domain.Schedule {
	out := make([]*domain.Schedule, len(f.members))
	for i, m := range f.members {
		out[i] = m.schedule
	}
	SortCanonical(out)
	return out
}

// SortCanonical orders schedules by score vector descending lexicographically,
// breaking ties by ascending schedule ID.
func SortCanonical(schedules []*domain.Schedule) {
	slices.SortStableFunc(schedules, func(a, b *domain.Schedule) int {
		if c := a.Scores().Compare(b.Scores()); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
