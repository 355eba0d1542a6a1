package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrInvalidInput is returned when a task or objective record is malformed.
	ErrInvalidInput = zerr.New("invalid input")

	// ErrCyclicDependency is returned when the task dependency graph contains a cycle.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrInfeasibleInput is returned when no ordering satisfies an explicit horizon constraint.
	ErrInfeasibleInput = zerr.New("infeasible input")

	// ErrInvalidObjective is returned when an objective's scoring rule cannot be evaluated.
	ErrInvalidObjective = zerr.New("invalid objective")

	// ErrNoFeasibleSchedule is returned when every strategy variant of a run failed.
	ErrNoFeasibleSchedule = zerr.New("no strategy variant produced a feasible schedule")

	// ErrRunCancelled is returned when an optimization run is cancelled between units.
	ErrRunCancelled = zerr.New("optimization run cancelled")

	// ErrTaskAlreadyExists is returned when attempting to add a task with an identifier that already exists.
	ErrTaskAlreadyExists = zerr.Wrap(ErrInvalidInput, "task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.Wrap(ErrInvalidInput, "missing dependency")

	// ErrAlreadyScored is returned when a score vector is assigned to a schedule twice.
	ErrAlreadyScored = zerr.New("schedule already scored")

	// ErrFrontierFinalized is returned when inserting into a frontier that has been finalized.
	ErrFrontierFinalized = zerr.New("frontier already finalized")

	// ErrUnknownStrategy is returned when a strategy kind is not recognised.
	ErrUnknownStrategy = zerr.Wrap(ErrInvalidInput, "unknown strategy kind")

	// ErrPlanReadFailed is returned when the plan file cannot be read.
	ErrPlanReadFailed = zerr.New("failed to read plan file")

	// ErrPlanParseFailed is returned when the plan file cannot be parsed.
	ErrPlanParseFailed = zerr.New("failed to parse plan file")

	// ErrPlanNotFound is returned when a named plan does not exist in the repository.
	ErrPlanNotFound = zerr.New("plan not found")

	// ErrRepositoryUnavailable is returned when the plan repository has no database configured.
	ErrRepositoryUnavailable = zerr.New("plan repository unavailable")

	// ErrStoreCreateFailed is returned when the result store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create result store directory")

	// ErrStoreReadFailed is returned when a stored result cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read stored result")

	// ErrStoreUnmarshalFailed is returned when a stored result cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal stored result")

	// ErrStoreMarshalFailed is returned when a result cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal result")

	// ErrStoreWriteFailed is returned when a result cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write result")
)

// ErrorKind names the failure class of an optimization error.
type ErrorKind string

const (
	// KindInvalidInput marks malformed task or objective records.
	KindInvalidInput ErrorKind = "InvalidInput"
	// KindCyclicDependency marks dependency cycles.
	KindCyclicDependency ErrorKind = "CyclicDependency"
	// KindInfeasibleInput marks horizon violations.
	KindInfeasibleInput ErrorKind = "InfeasibleInput"
	// KindInvalidObjective marks unevaluable scoring rules.
	KindInvalidObjective ErrorKind = "InvalidObjective"
	// KindNoFeasibleSchedule marks runs where every variant failed.
	KindNoFeasibleSchedule ErrorKind = "NoFeasibleSchedule"
	// KindCancelled marks cancelled runs.
	KindCancelled ErrorKind = "Cancelled"
	// KindInternal is used for anything else.
	KindInternal ErrorKind = "Internal"
)

// Kind classifies err into the optimizer's error taxonomy.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCyclicDependency):
		return KindCyclicDependency
	case errors.Is(err, ErrInvalidObjective):
		return KindInvalidObjective
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNoFeasibleSchedule):
		return KindNoFeasibleSchedule
	case errors.Is(err, ErrInfeasibleInput):
		return KindInfeasibleInput
	case errors.Is(err, ErrRunCancelled):
		return KindCancelled
	default:
		return KindInternal
	}
}

// IsStructural reports whether err indicates that the input itself cannot
// produce any valid schedule, which aborts the whole run.
func IsStructural(err error) bool {
	switch Kind(err) {
	case KindInvalidInput, KindCyclicDependency, KindInvalidObjective:
		return true
	default:
		return false
	}
}

// Metadata collects zerr metadata from every level of err's chain.
// Keys closer to the top of the chain win.
func Metadata(err error) map[string]any {
	meta := make(map[string]any)
	for current := err; current != nil; current = errors.Unwrap(current) {
		var z *zerr.Error
		if !errors.As(current, &z) {
			break
		}
		for k, v := range z.Metadata() {
			if _, exists := meta[k]; !exists {
				meta[k] = v
			}
		}
		current = z
	}
	return meta
}
