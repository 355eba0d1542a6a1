// Package optimizer runs construction strategies and collects their
// schedules into a Pareto frontier.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/pareto/internal/engine/constructor"
	"go.trai.ch/pareto/internal/engine/frontier"
	"go.trai.ch/pareto/internal/engine/scoring"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// EmptyStrategy labels the trivial schedule returned for an empty task set.
const EmptyStrategy = "empty"

// Optimizer runs every configured (strategy, variant) unit, scores the
// resulting schedules and filters them down to the non-dominated set.
// It holds no run state; concurrent Optimize calls are independent.
type Optimizer struct {
	tracer ports.Tracer
	logger ports.Logger
}

// New creates an Optimizer.
func New(tracer ports.Tracer, logger ports.Logger) *Optimizer {
	return &Optimizer{
		tracer: tracer,
		logger: logger,
	}
}

// Option configures a single Optimize call.
type Option func(*options)

type options struct {
	observer ports.RunObserver
}

// WithObserver reports per-unit progress to obs.
func WithObserver(obs ports.RunObserver) Option {
	return func(o *options) {
		o.observer = obs
	}
}

type unit struct {
	cfg      domain.StrategyConfig
	label    string
	strategy constructor.Strategy
}

type outcome struct {
	schedule *domain.Schedule
	err      error
}

// run is the explicit context of one Optimize invocation.
type run struct {
	graph    *domain.Graph
	scorer   *scoring.Scorer
	params   constructor.Params
	units    []unit
	observer ports.RunObserver
}

// Optimize builds candidate schedules for tasks under every strategy variant
// of cfg, scores them against objectives and returns the finalized frontier.
//
// Malformed input, dependency cycles and invalid objectives abort the run.
// A variant that fails on its own, for example by overrunning the horizon,
// becomes a warning on the result; the run fails with
// domain.ErrNoFeasibleSchedule only when every variant failed.
func (o *Optimizer) Optimize(
	ctx context.Context,
	tasks []domain.Task,
	objectives []domain.Objective,
	cfg domain.RunConfig,
	opts ...Option,
) (*domain.Result, error) {
	ctx, span := o.tracer.Start(ctx, "optimize")
	defer span.End()

	r, err := o.prepare(tasks, objectives, &cfg, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("pareto.tasks", r.graph.TaskCount())
	span.SetAttribute("pareto.objectives", r.scorer.Len())

	if r.graph.TaskCount() == 0 {
		return o.emptyResult(r)
	}

	labels := make([]string, len(r.units))
	for i := range r.units {
		labels[i] = r.units[i].label
	}
	span.SetAttribute("pareto.units", len(labels))
	o.tracer.EmitPlan(ctx, labels)
	if r.observer != nil {
		r.observer.OnPlanEmit(labels)
	}

	result, err := o.execute(ctx, r, workers(cfg.Workers, len(r.units)))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("pareto.frontier", len(result.Frontier))
	return result, nil
}

// prepare validates every input eagerly so that structural errors surface
// before any construction work starts.
func (o *Optimizer) prepare(
	tasks []domain.Task,
	objectives []domain.Objective,
	cfg *domain.RunConfig,
	opts []Option,
) (*run, error) {
	var op options
	for _, opt := range opts {
		opt(&op)
	}

	graph, err := domain.NewGraphFromTasks(tasks)
	if err != nil {
		return nil, err
	}

	scorer, err := scoring.New(objectives, cfg.Weights)
	if err != nil {
		return nil, err
	}

	if cfg.Tracks < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "track count must not be negative"), "tracks", cfg.Tracks)
	}
	if cfg.Horizon < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "horizon must not be negative"), "horizon", cfg.Horizon)
	}

	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = domain.DefaultStrategies(0, 1)
	}

	var units []unit
	for _, sc := range strategies {
		for v := range sc.Variants() {
			strategy, err := constructor.NewStrategy(sc, v, scorer)
			if err != nil {
				return nil, err
			}
			units = append(units, unit{
				cfg:      sc,
				label:    sc.VariantLabel(v),
				strategy: strategy,
			})
		}
	}

	return &run{
		graph:    graph,
		scorer:   scorer,
		params:   constructor.ParamsFromRun(cfg),
		units:    units,
		observer: op.observer,
	}, nil
}

func (o *Optimizer) emptyResult(r *run) (*domain.Result, error) {
	s := domain.NewSchedule(EmptyStrategy, nil)
	if err := s.SetScores(r.scorer.Zero()); err != nil {
		return nil, err
	}
	return &domain.Result{
		Frontier:   []*domain.Schedule{s},
		Objectives: r.scorer.Objectives(),
		Warnings:   []domain.Warning{},
		Candidates: 1,
	}, nil
}

// execute constructs and scores units on a bounded worker pool while the
// calling goroutine inserts finished schedules into the frontier strictly in
// unit order.
func (o *Optimizer) execute(ctx context.Context, r *run, limit int) (*domain.Result, error) {
	outcomes := make([]outcome, len(r.units))
	done := make([]chan struct{}, len(r.units))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(limit)
	go func() {
		for i := range r.units {
			g.Go(func() error {
				defer close(done[i])
				s, err := o.runUnit(ctx, r, &r.units[i])
				outcomes[i] = outcome{schedule: s, err: err}
				return nil
			})
		}
	}()

	front := frontier.New(r.scorer.Len())
	warnings := []domain.Warning{}
	var fatal error
	cancelled := 0

	for i := range r.units {
		<-done[i]
		u := &r.units[i]
		out := outcomes[i]

		if out.err == nil && fatal == nil {
			ins, err := front.Insert(out.schedule)
			if err != nil {
				out.err = annotate(err, u)
			} else {
				o.notify(r, u.label, ins.Outcome.String(), nil)
				continue
			}
		}
		if out.err == nil {
			continue
		}

		switch {
		case errors.Is(out.err, domain.ErrRunCancelled):
			cancelled++
		case domain.IsStructural(out.err) || domain.Kind(out.err) == domain.KindInternal:
			if fatal == nil {
				fatal = out.err
			}
		default:
			warnings = append(warnings, domain.Warning{
				Strategy: u.cfg.Kind,
				Variant:  u.label,
				Kind:     domain.Kind(out.err),
				Message:  out.err.Error(),
				Err:      out.err,
			})
			o.logger.Warn(u.label + ": " + out.err.Error())
		}
		o.notify(r, u.label, "failed", out.err)
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if cancelled > 0 {
		err := zerr.With(zerr.Wrap(domain.ErrRunCancelled, "run cancelled before every variant started"), "skipped", cancelled)
		return nil, zerr.With(err, "completed", len(r.units)-cancelled)
	}
	if front.Len() == 0 {
		err := zerr.With(zerr.Wrap(domain.ErrNoFeasibleSchedule, "every strategy variant failed"), "variants", len(r.units))
		return nil, zerr.With(err, "cause", warnings[0].Message)
	}

	stats := front.Stats()
	return &domain.Result{
		Frontier:   front.Finalize(),
		Objectives: r.scorer.Objectives(),
		Warnings:   warnings,
		Candidates: stats.Offered,
		Dominated:  stats.Dominated(),
	}, nil
}

// runUnit constructs and scores the schedule of one strategy variant.
// Cancellation is honoured only before the unit starts.
func (o *Optimizer) runUnit(ctx context.Context, r *run, u *unit) (*domain.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, annotate(zerr.Wrap(domain.ErrRunCancelled, err.Error()), u)
	}

	_, span := o.tracer.Start(ctx, u.label)
	defer span.End()
	span.SetAttribute("pareto.strategy", string(u.cfg.Kind))

	s, err := constructor.Construct(r.graph, u.strategy, r.params)
	if err != nil {
		err = annotate(err, u)
		span.RecordError(err)
		return nil, err
	}
	if _, err := r.scorer.Apply(s); err != nil {
		err = annotate(err, u)
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("pareto.span", s.Span)
	_, _ = fmt.Fprintf(span, "placed %d tasks over %d time units", len(s.Assignments), s.Span)
	return s, nil
}

func (o *Optimizer) notify(r *run, label, outcome string, err error) {
	if r.observer != nil {
		r.observer.OnUnitComplete(label, outcome, err)
	}
}

// annotate records which strategy variant produced err.
func annotate(err error, u *unit) error {
	err = zerr.With(err, "strategy", string(u.cfg.Kind))
	return zerr.With(err, "variant", u.label)
}

func workers(requested, units int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, units))
}
