package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pareto/internal/adapters/httpapi"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type optimizerFunc func(ctx context.Context, plan *domain.Plan, noCache bool) (*domain.Result, error)

func (f optimizerFunc) Optimize(ctx context.Context, plan *domain.Plan, noCache bool) (*domain.Result, error) {
	return f(ctx, plan, noCache)
}

type fixture struct {
	loader *mocks.MockPlanLoader
	repo   *mocks.MockPlanRepository
	logger *mocks.MockLogger
}

func setup(t *testing.T, opt optimizerFunc) (*httpapi.Server, fixture) {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := fixture{
		loader: mocks.NewMockPlanLoader(ctrl),
		repo:   mocks.NewMockPlanRepository(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	return httpapi.New(f.loader, f.repo, opt, f.logger), f
}

func samplePlan() *domain.Plan {
	return &domain.Plan{
		Name:  "week",
		Tasks: []domain.Task{{ID: domain.NewInternedString("run"), Duration: 30, Category: domain.CategoryHealth}},
		Objectives: []domain.Objective{
			{ID: "fitness", Rule: domain.Rule{Kind: domain.RuleSumByCategory}},
		},
	}
}

func sampleResult(t *testing.T) *domain.Result {
	t.Helper()
	s := domain.NewSchedule("priority", []domain.Assignment{
		{TaskID: domain.NewInternedString("run"), Category: domain.CategoryHealth, Duration: 30},
	})
	require.NoError(t, s.SetScores(domain.ScoreVector{30}))
	return &domain.Result{
		Frontier:   []*domain.Schedule{s},
		Objectives: []string{"fitness"},
		Warnings:   []domain.Warning{},
		Candidates: 4,
		Dominated:  0,
	}
}

func do(t *testing.T, s *httpapi.Server, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return resp.StatusCode, doc
}

func TestHealthz(t *testing.T) {
	s, _ := setup(t, nil)
	status, doc := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", doc["status"])
}

func TestOptimize(t *testing.T) {
	result := sampleResult(t)
	var gotNoCache bool
	var gotName string
	s, f := setup(t, func(_ context.Context, plan *domain.Plan, noCache bool) (*domain.Result, error) {
		gotNoCache = noCache
		gotName = plan.Name
		return result, nil
	})
	f.loader.EXPECT().Parse([]byte("plan document")).Return(samplePlan(), nil)

	status, doc := do(t, s, http.MethodPost, "/optimize?nocache=true&name=override", "plan document")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, gotNoCache)
	assert.Equal(t, "override", gotName)

	assert.Equal(t, []any{"fitness"}, doc["objectives"])
	assert.InDelta(t, 4, doc["candidates"], 0)
	frontier, ok := doc["frontier"].([]any)
	require.True(t, ok)
	require.Len(t, frontier, 1)
	first, ok := frontier[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, result.Frontier[0].ID.String(), first["id"])
	assert.Equal(t, []any{30.0}, first["scores"])
}

func TestOptimize_EmptyBody(t *testing.T) {
	s, _ := setup(t, nil)
	status, doc := do(t, s, http.MethodPost, "/optimize", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, doc["error"], "request body is empty")
}

func TestOptimize_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		parseErr  error
		optimErr  error
		status    int
		kind      domain.ErrorKind
		detailKey string
	}{
		{
			name:     "malformed document",
			parseErr: zerr.Wrap(domain.ErrPlanParseFailed, "yaml: line 1"),
			status:   http.StatusBadRequest,
			kind:     domain.KindInternal,
		},
		{
			name:      "cycle",
			parseErr:  zerr.With(zerr.Wrap(domain.ErrCyclicDependency, "tasks form a cycle"), "cycle", "a -> b -> a"),
			status:    http.StatusUnprocessableEntity,
			kind:      domain.KindCyclicDependency,
			detailKey: "cycle",
		},
		{
			name:      "invalid objective",
			parseErr:  zerr.With(zerr.Wrap(domain.ErrInvalidObjective, "unknown rule"), "objective", "fitness"),
			status:    http.StatusUnprocessableEntity,
			kind:      domain.KindInvalidObjective,
			detailKey: "objective",
		},
		{
			name:      "no feasible schedule",
			optimErr:  zerr.With(zerr.Wrap(domain.ErrNoFeasibleSchedule, "every strategy variant failed"), "variants", 4),
			status:    http.StatusUnprocessableEntity,
			kind:      domain.KindNoFeasibleSchedule,
			detailKey: "variants",
		},
		{
			name:     "cancelled",
			optimErr: zerr.Wrap(domain.ErrRunCancelled, "context canceled"),
			status:   http.StatusServiceUnavailable,
			kind:     domain.KindCancelled,
		},
		{
			name:     "internal",
			optimErr: zerr.Wrap(domain.ErrStoreWriteFailed, "disk full"),
			status:   http.StatusInternalServerError,
			kind:     domain.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, f := setup(t, func(context.Context, *domain.Plan, bool) (*domain.Result, error) {
				return nil, tt.optimErr
			})
			if tt.parseErr != nil {
				f.loader.EXPECT().Parse(gomock.Any()).Return(nil, tt.parseErr)
			} else {
				f.loader.EXPECT().Parse(gomock.Any()).Return(samplePlan(), nil)
			}
			if tt.status == http.StatusInternalServerError {
				f.logger.EXPECT().Error(gomock.Any())
			}

			status, doc := do(t, s, http.MethodPost, "/optimize", "doc")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, string(tt.kind), doc["kind"])
			assert.NotEmpty(t, doc["error"])
			if tt.detailKey != "" {
				details, ok := doc["details"].(map[string]any)
				require.True(t, ok)
				assert.Contains(t, details, tt.detailKey)
			}
		})
	}
}

func TestStoredPlans(t *testing.T) {
	result := sampleResult(t)
	s, f := setup(t, func(_ context.Context, plan *domain.Plan, _ bool) (*domain.Result, error) {
		assert.Equal(t, "week", plan.Name)
		return result, nil
	})

	f.repo.EXPECT().List(gomock.Any()).Return([]string{"month", "week"}, nil)
	status, doc := do(t, s, http.MethodGet, "/plans", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"month", "week"}, doc["plans"])

	f.repo.EXPECT().Load(gomock.Any(), "week").Return(samplePlan(), nil)
	status, _ = do(t, s, http.MethodPost, "/plans/week/optimize", "")
	assert.Equal(t, http.StatusOK, status)

	f.repo.EXPECT().Load(gomock.Any(), "nope").
		Return(nil, zerr.With(zerr.Wrap(domain.ErrPlanNotFound, "no stored plan with this name"), "plan", "nope"))
	status, doc = do(t, s, http.MethodPost, "/plans/nope/optimize", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, map[string]any{"plan": "nope"}, doc["details"])
}

func TestStoredPlans_RepositoryUnavailable(t *testing.T) {
	s, f := setup(t, nil)
	f.repo.EXPECT().List(gomock.Any()).Return(nil, zerr.Wrap(domain.ErrRepositoryUnavailable, "no database configured"))

	status, _ := do(t, s, http.MethodGet, "/plans", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := setup(t, nil)
	status, doc := do(t, s, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "HTTP", doc["kind"])
}
