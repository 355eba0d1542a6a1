// Package hasher computes run fingerprints with xxhash.
package hasher

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// formatTag changes whenever the fingerprint layout changes, so stale results
// are never served.
const formatTag = "pareto/fingerprint/v1"

// Hasher fingerprints plans.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint hashes every input that determines the outcome of a run:
// tasks, objectives in order, strategy variants, layout parameters and weights.
// Task declaration order, the plan name and the worker count do not matter.
func (h *Hasher) Fingerprint(plan *domain.Plan) (string, error) {
	if plan == nil {
		return "", zerr.Wrap(domain.ErrInvalidInput, "cannot fingerprint a nil plan")
	}

	d := digest{xxhash.New()}
	d.str(formatTag)

	d.hashTasks(plan.Tasks)
	d.hashObjectives(plan.Objectives)
	d.hashRun(&plan.Run)

	return fmt.Sprintf("%016x", d.Sum64()), nil
}

type digest struct {
	*xxhash.Digest
}

func (d digest) str(s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}

func (d digest) int(v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v)) //nolint:gosec // bit pattern only
	_, _ = d.Write(buf[:])
}

func (d digest) float(v float64) {
	d.int(int64(math.Float64bits(v))) //nolint:gosec // bit pattern only
}

func (d digest) bool(v bool) {
	if v {
		d.int(1)
		return
	}
	d.int(0)
}

// section closes a variable-length list.
func (d digest) section() {
	_, _ = d.Write([]byte{0xff})
}

func (d digest) hashTasks(tasks []domain.Task) {
	sorted := slices.Clone(tasks)
	slices.SortFunc(sorted, func(a, b domain.Task) int {
		return a.ID.Compare(b.ID)
	})

	for i := range sorted {
		t := &sorted[i]
		d.str(t.ID.String())
		d.int(t.Duration)
		d.str(string(t.Category))
		d.int(int64(t.Priority))
		d.int(int64(t.EnergyCost))
		d.int(t.Deadline)

		deps := make([]string, len(t.Dependencies))
		for j, dep := range t.Dependencies {
			deps[j] = dep.String()
		}
		slices.Sort(deps)
		for _, dep := range slices.Compact(deps) {
			d.str(dep)
		}
		d.section()
	}
	d.section()
}

func (d digest) hashObjectives(objectives []domain.Objective) {
	for i := range objectives {
		o := &objectives[i]
		d.str(o.ID)
		d.str(string(o.Rule.Kind))

		cats := slices.Clone(o.Rule.Categories)
		slices.Sort(cats)
		for _, c := range slices.Compact(cats) {
			d.str(string(c))
		}
		d.section()

		keys := make([]domain.Category, 0, len(o.Rule.Weights))
		for c := range o.Rule.Weights {
			keys = append(keys, c)
		}
		slices.SortFunc(keys, cmp.Compare[domain.Category])
		for _, c := range keys {
			d.str(string(c))
			d.float(o.Rule.Weights[c])
		}
		d.section()

		d.str(o.Rule.Expression)
		d.str(o.EffectiveDirection().String())
		d.float(o.Target)
	}
	d.section()
}

func (d digest) hashRun(run *domain.RunConfig) {
	strategies := run.Strategies
	if len(strategies) == 0 {
		strategies = domain.DefaultStrategies(0, 1)
	}
	for _, s := range strategies {
		d.str(string(s.Kind))
		d.int(int64(s.Variants()))
		if s.Kind == domain.StrategyRandom {
			d.int(s.Seed)
		}
	}
	d.section()

	d.bool(run.Parallel)
	if run.Parallel {
		d.int(int64(run.Tracks))
	}
	d.int(run.Horizon)

	keys := make([]string, 0, len(run.Weights))
	for k := range run.Weights {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		d.str(k)
		d.float(run.Weights[k])
	}
	d.section()
}
