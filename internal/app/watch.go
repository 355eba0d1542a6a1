package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.trai.ch/pareto/internal/adapters/config"
	"go.trai.ch/pareto/internal/adapters/watcher"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

// WithWatcher replaces the plan file watcher factory and the window used to
// coalesce bursts of file events. It is primarily used by tests.
func (a *App) WithWatcher(fn func() (ports.Watcher, error), debounce time.Duration) *App {
	a.newWatcher = fn
	a.debounce = debounce
	return a
}

// watch runs the plan once and again after every change to the plan file,
// until ctx is cancelled. Failed runs are logged and do not stop watching.
func (a *App) watch(ctx context.Context, opts RunOptions) error {
	if opts.PlanName != "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidInput, "watch mode needs a plan file"), "plan", opts.PlanName)
	}
	target, err := planFile(opts.Path)
	if err != nil {
		return err
	}

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = w.Stop() }()
	if err := w.Start(ctx, target); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func([]string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	go func() {
		for ev := range w.Events() {
			debouncer.Add(ev.Path)
		}
	}()

	opts.Path = target
	for {
		if err := a.runOnce(ctx, opts); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, domain.ErrRunCancelled) {
				return err
			}
			a.logger.Error(err)
		}
		a.logger.Info(fmt.Sprintf("watching %s for changes", target))

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

// planFile resolves path to the plan file it names, searching upwards from
// directories.
func planFile(path string) (string, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrPlanReadFailed, err.Error()), "path", path)
	}
	if info.IsDir() {
		return config.Find(path)
	}
	return path, nil
}
