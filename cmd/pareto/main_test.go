package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pareto/internal/adapters/telemetry"
	"go.trai.ch/pareto/internal/app"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports/mocks"
	"go.trai.ch/pareto/internal/engine/optimizer"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	loader *mocks.MockPlanLoader
	repo   *mocks.MockPlanRepository
	logger *mocks.MockLogger
	app    *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		loader: mocks.NewMockPlanLoader(ctrl),
		repo:   mocks.NewMockPlanRepository(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	f.app = app.New(
		f.loader,
		f.repo,
		mocks.NewMockHasher(ctrl),
		mocks.NewMockResultStore(ctrl),
		optimizer.New(telemetry.NewNoOpTracer(), f.logger),
		f.logger,
	)
	return f
}

func (f *fixture) provider(_ context.Context) (*app.Components, func(), error) {
	return &app.Components{App: f.app, Logger: f.logger}, func() {}, nil
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	f := newFixture(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, f.provider)
	assert.Equal(t, 0, exitCode)
	assert.Empty(t, stderr.String())
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("missing.yaml").Return(nil, domain.ErrPlanNotFound)
	f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	exitCode := run(context.Background(), []string{"optimize", "missing.yaml"}, new(bytes.Buffer), f.provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_Options verifies that options are applied to the app before the command runs.
func TestRun_Options(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().List(gomock.Any()).Return([]string{"week"}, nil)

	applied := false
	exitCode := run(context.Background(), []string{"plans", "list"}, new(bytes.Buffer), f.provider,
		func(a *app.App) {
			applied = a != nil
		})

	assert.Equal(t, 0, exitCode)
	assert.True(t, applied)
}
