// Package app implements the application layer for pareto.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.trai.ch/pareto/internal/adapters/detector"
	"go.trai.ch/pareto/internal/adapters/httpapi"
	"go.trai.ch/pareto/internal/adapters/linear"
	"go.trai.ch/pareto/internal/adapters/telemetry"
	"go.trai.ch/pareto/internal/adapters/tui"
	"go.trai.ch/pareto/internal/adapters/watcher"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/pareto/internal/engine/optimizer"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	loader    ports.PlanLoader
	repo      ports.PlanRepository
	hasher    ports.Hasher
	store     ports.ResultStore
	optimizer *optimizer.Optimizer
	logger    ports.Logger
	newRender func(format detector.Format) ports.Renderer

	newWatcher func() (ports.Watcher, error)
	debounce   time.Duration
}

// New creates a new App instance.
func New(
	loader ports.PlanLoader,
	repo ports.PlanRepository,
	hasher ports.Hasher,
	store ports.ResultStore,
	opt *optimizer.Optimizer,
	log ports.Logger,
) *App {
	a := &App{
		loader:    loader,
		repo:      repo,
		hasher:    hasher,
		store:     store,
		optimizer: opt,
		logger:    log,
		newRender: newRenderer,
		debounce:  watcher.DefaultDebounceWindow,
	}
	a.newWatcher = func() (ports.Watcher, error) {
		return watcher.NewWatcher(func(err error) {
			a.logger.Warn("watcher: " + err.Error())
		})
	}
	return a
}

// newRenderer draws live progress on interactive terminals and plain lines
// everywhere else.
func newRenderer(format detector.Format) ports.Renderer {
	if format == detector.FormatTable {
		return tui.NewRenderer(os.Stdout, os.Stderr)
	}
	return linear.NewRenderer(os.Stdout, os.Stderr, format)
}

// WithRenderer replaces the renderer factory. It is primarily used by tests
// to capture output.
func (a *App) WithRenderer(fn func(format detector.Format) ports.Renderer) *App {
	a.newRender = fn
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Path is a plan file, or a directory searched upwards for pareto.yaml.
	Path string
	// PlanName loads the plan from the repository instead of a file.
	PlanName string
	NoCache  bool
	Format   detector.Format
	Override Overrides
	// Timings logs the wall time of every strategy variant after the run.
	Timings bool
	// Watch re-runs the optimization whenever the plan file changes.
	Watch bool
}

// Run loads a plan, optimizes it and renders the result.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	if opts.Watch {
		return a.watch(ctx, opts)
	}
	return a.runOnce(ctx, opts)
}

func (a *App) runOnce(ctx context.Context, opts RunOptions) error {
	plan, err := a.resolvePlan(ctx, opts)
	if err != nil {
		return err
	}
	if err := opts.Override.Apply(&plan.Run); err != nil {
		return err
	}

	if opts.Timings {
		timings := telemetry.NewTimings()
		shutdown := telemetry.Install(timings)
		defer func() {
			_ = shutdown(context.WithoutCancel(ctx))
			a.logTimings(timings.Entries())
		}()
	}

	format := detector.ResolveFormat(detector.DetectEnvironment(), opts.Format)
	renderer := a.newRender(format)

	var result *domain.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() { _ = renderer.Stop() }()
		var err error
		result, err = a.optimize(gctx, plan, opts.NoCache, renderer)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return renderer.OnResult(result)
}

// Optimize runs plan, serving and storing results through the result store
// unless noCache is set.
func (a *App) Optimize(ctx context.Context, plan *domain.Plan, noCache bool) (*domain.Result, error) {
	return a.optimize(ctx, plan, noCache, nil)
}

func (a *App) optimize(
	ctx context.Context,
	plan *domain.Plan,
	noCache bool,
	observer ports.RunObserver,
) (*domain.Result, error) {
	fingerprint, err := a.hasher.Fingerprint(plan)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to fingerprint plan")
	}

	if !noCache {
		cached, err := a.store.Get(fingerprint)
		if err != nil {
			a.logger.Warn("ignoring unreadable cached result: " + err.Error())
		} else if cached != nil {
			a.logger.Info(fmt.Sprintf("serving cached result %s", fingerprint))
			return cached, nil
		}
	}

	var opts []optimizer.Option
	if observer != nil {
		opts = append(opts, optimizer.WithObserver(observer))
	}
	result, err := a.optimizer.Optimize(ctx, plan.Tasks, plan.Objectives, plan.Run, opts...)
	if err != nil {
		return nil, zerr.With(err, "plan", plan.Name)
	}

	if err := a.store.Put(fingerprint, result); err != nil {
		a.logger.Warn("failed to store result: " + err.Error())
	}
	return result, nil
}

func (a *App) logTimings(entries []telemetry.Timing) {
	for _, e := range entries {
		status := "ok"
		if e.Failed {
			status = "failed"
		}
		a.logger.Info(fmt.Sprintf("%-16s %-9s %10s %s", e.Variant, e.Strategy, e.Duration.Round(time.Microsecond), status))
	}
}

// SavePlan loads the plan file at path and stores it in the repository.
// A non-empty name replaces the plan's own name.
func (a *App) SavePlan(ctx context.Context, path, name string) (string, error) {
	plan, err := a.loader.Load(path)
	if err != nil {
		return "", zerr.Wrap(err, "failed to load plan")
	}
	if name != "" {
		plan.Name = name
	}
	if err := a.repo.Save(ctx, plan); err != nil {
		return "", err
	}
	a.logger.Info(fmt.Sprintf("saved plan %q with %d task(s)", plan.Name, len(plan.Tasks)))
	return plan.Name, nil
}

// ListPlans returns the names of every stored plan.
func (a *App) ListPlans(ctx context.Context) ([]string, error) {
	return a.repo.List(ctx)
}

// Serve exposes Optimize over HTTP on addr until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	return httpapi.New(a.loader, a.repo, a, a.logger).Listen(ctx, addr)
}

func (a *App) resolvePlan(ctx context.Context, opts RunOptions) (*domain.Plan, error) {
	if opts.PlanName != "" {
		return a.repo.Load(ctx, opts.PlanName)
	}
	path := opts.Path
	if path == "" {
		path = "."
	}
	plan, err := a.loader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load plan")
	}
	return plan, nil
}
