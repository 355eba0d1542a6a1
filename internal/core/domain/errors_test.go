package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       domain.ErrorKind
		structural bool
	}{
		{name: "nil", err: nil, want: ""},
		{name: "invalid input", err: zerr.Wrap(domain.ErrInvalidInput, "bad"), want: domain.KindInvalidInput, structural: true},
		{name: "duplicate task", err: domain.ErrTaskAlreadyExists, want: domain.KindInvalidInput, structural: true},
		{name: "cycle", err: domain.ErrCyclicDependency, want: domain.KindCyclicDependency, structural: true},
		{name: "objective", err: domain.ErrInvalidObjective, want: domain.KindInvalidObjective, structural: true},
		{name: "horizon", err: domain.ErrInfeasibleInput, want: domain.KindInfeasibleInput},
		{name: "no feasible schedule", err: domain.ErrNoFeasibleSchedule, want: domain.KindNoFeasibleSchedule},
		{name: "cancelled", err: zerr.Wrap(domain.ErrRunCancelled, context.Canceled.Error()), want: domain.KindCancelled},
		{name: "anything else", err: errors.New("boom"), want: domain.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Kind(tt.err))
			assert.Equal(t, tt.structural, domain.IsStructural(tt.err))
		})
	}
}

func TestMetadata(t *testing.T) {
	inner := zerr.With(zerr.Wrap(domain.ErrInfeasibleInput, "overran horizon"), "variant", "inner")
	inner = zerr.With(inner, "horizon", int64(100))
	outer := zerr.With(zerr.Wrap(inner, "construction failed"), "variant", "outer")

	meta := domain.Metadata(outer)
	assert.Equal(t, "outer", meta["variant"], "keys nearer the top win")
	assert.Equal(t, int64(100), meta["horizon"])

	assert.Empty(t, domain.Metadata(errors.New("plain")))
	assert.Empty(t, domain.Metadata(nil))
}
