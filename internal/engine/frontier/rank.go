package frontier

import "go.trai.ch/pareto/internal/core/domain"

// Rank partitions scored schedules into successive non-dominated fronts.
// Front 0 is the Pareto frontier of the input, front 1 the frontier of what
// remains once front 0 is removed, and so on. Each front is in canonical order.
func Rank(schedules []*domain.Schedule) [][]*domain.Schedule {
	n := len(schedules)
	if n == 0 {
		return nil
	}

	scores := make([]domain.ScoreVector, n)
	for i, s := range schedules {
		scores[i] = s.Scores()
	}

	dominates := make([][]int, n)
	dominatedBy := make([]int, n)
	for i := range n {
		for j := i + 1; j < n; j++ {
			switch {
			case Dominates(scores[i], scores[j]):
				dominates[i] = append(dominates[i], j)
				dominatedBy[j]++
			case Dominates(scores[j], scores[i]):
				dominates[j] = append(dominates[j], i)
				dominatedBy[i]++
			}
		}
	}

	var current []int
	for i := range n {
		if dominatedBy[i] == 0 {
			current = append(current, i)
		}
	}

	var fronts [][]*domain.Schedule
	for len(current) > 0 {
		front := make([]*domain.Schedule, len(current))
		var next []int
		for k, i := range current {
			front[k] = schedules[i]
			for _, j := range dominates[i] {
				dominatedBy[j]--
				if dominatedBy[j] == 0 {
					next = append(next, j)
				}
			}
		}
		SortCanonical(front)
		fronts = append(fronts, front)
		current = next
	}
	return fronts
}

// RankOf returns the front index of every schedule, in input order.
func RankOf(schedules []*domain.Schedule) []int {
	index := make(map[*domain.Schedule]int, len(schedules))
	for i, s := range schedules {
		index[s] = i
	}
	ranks := make([]int, len(schedules))
	for r, front := range Rank(schedules) {
		for _, s := range front {
			ranks[index[s]] = r
		}
	}
	return ranks
}
