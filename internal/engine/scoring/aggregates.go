package scoring

import "go.trai.ch/pareto/internal/core/domain"

// aggregates summarizes a schedule once so every rule reads from the same view.
type aggregates struct {
	totals   map[domain.Category]int64
	counts   map[domain.Category]int64
	late     map[domain.Category]int64
	lateness int64
	span     int64
	tasks    int64
}

func summarize(s *domain.Schedule) *aggregates {
	a := &aggregates{
		totals: make(map[domain.Category]int64),
		counts: make(map[domain.Category]int64),
		late:   make(map[domain.Category]int64),
		span:   s.Span,
		tasks:  int64(len(s.Assignments)),
	}
	for _, as := range s.Assignments {
		a.totals[as.Category] += as.Duration
		a.counts[as.Category]++
		if over := overrun(as); over > 0 {
			a.late[as.Category] += over
			a.lateness += over
		}
	}
	return a
}

// overrun returns how far an assignment finishes past its deadline.
func overrun(a domain.Assignment) int64 {
	if a.Deadline <= 0 {
		return 0
	}
	return max(0, a.Finish()-a.Deadline)
}
