// Package httpapi exposes optimization runs over HTTP with fiber.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

// ShutdownTimeout bounds how long in-flight requests may finish after the
// serving context is cancelled.
const ShutdownTimeout = 5 * time.Second

// Optimizer runs a resolved plan, consulting the result store unless noCache is set.
type Optimizer interface {
	Optimize(ctx context.Context, plan *domain.Plan, noCache bool) (*domain.Result, error)
}

// Server routes HTTP requests to the optimizer.
type Server struct {
	app       *fiber.App
	loader    ports.PlanLoader
	repo      ports.PlanRepository
	optimizer Optimizer
	logger    ports.Logger
}

// New creates a Server and registers its routes.
func New(loader ports.PlanLoader, repo ports.PlanRepository, optimizer Optimizer, logger ports.Logger) *Server {
	s := &Server{
		loader:    loader,
		repo:      repo,
		optimizer: optimizer,
		logger:    logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "pareto",
		ErrorHandler: s.handleError,
	})

	s.app.Get("/healthz", s.healthz)
	s.app.Post("/optimize", s.optimize)
	s.app.Get("/plans", s.listPlans)
	s.app.Post("/plans/:name/optimize", s.optimizeStored)
	return s
}

// App exposes the fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	s.logger.Info("listening on " + addr)
	err := s.app.Listen(addr, fiber.ListenConfig{
		GracefulContext:       ctx,
		ShutdownTimeout:       ShutdownTimeout,
		DisableStartupMessage: true,
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "http server failed"), "addr", addr)
	}
	return nil
}

func (s *Server) healthz(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) optimize(c fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return zerr.Wrap(domain.ErrPlanParseFailed, "request body is empty")
	}

	plan, err := s.loader.Parse(body)
	if err != nil {
		return err
	}
	if name := c.Query("name"); name != "" {
		plan.Name = name
	}
	return s.run(c, plan)
}

func (s *Server) optimizeStored(c fiber.Ctx) error {
	plan, err := s.repo.Load(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return s.run(c, plan)
}

func (s *Server) run(c fiber.Ctx, plan *domain.Plan) error {
	noCache := c.Query("nocache") == "true"
	result, err := s.optimizer.Optimize(c.Context(), plan, noCache)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (s *Server) listPlans(c fiber.Ctx) error {
	names, err := s.repo.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"plans": names})
}

// errorBody is the JSON document returned for failed requests.
type errorBody struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorBody{Error: fe.Message, Kind: "HTTP"})
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(err)
	}

	body := errorBody{
		Error: err.Error(),
		Kind:  string(domain.Kind(err)),
	}
	if meta := domain.Metadata(err); len(meta) > 0 {
		body.Details = meta
	}
	return c.Status(status).JSON(body)
}

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPlanParseFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		return http.StatusServiceUnavailable
	}

	switch domain.Kind(err) {
	case domain.KindInvalidInput, domain.KindCyclicDependency, domain.KindInvalidObjective,
		domain.KindNoFeasibleSchedule, domain.KindInfeasibleInput:
		return http.StatusUnprocessableEntity
	case domain.KindCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
