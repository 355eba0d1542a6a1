package domain

import "strings"

// Category is the life area a task serves. The well-known values mirror the
// categories most plans use, but any non-empty name is accepted.
type Category string

// Well-known categories.
const (
	CategoryWork          Category = "work"
	CategoryHealth        Category = "health"
	CategoryRelationships Category = "relationships"
	CategoryLearning      Category = "learning"
	CategoryLeisure       Category = "leisure"
	CategoryChores        Category = "chores"
	CategoryFinance       Category = "finance"
	CategoryOther         Category = "other"
)

// NormalizeCategory lower-cases and trims a category name.
func NormalizeCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

// Task is a unit of work to place in a schedule.
// Durations and deadlines are expressed in discrete time units from the start of the run.
type Task struct {
	ID           InternedString
	Duration     int64
	Category     Category
	Priority     int
	EnergyCost   int
	Deadline     int64
	Dependencies []InternedString
}

// HasDeadline reports whether the task carries a deadline.
func (t *Task) HasDeadline() bool {
	return t.Deadline > 0
}
