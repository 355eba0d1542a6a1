package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pareto/internal/adapters/cas"      //nolint:depguard // Wired in app layer
	"go.trai.ch/pareto/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pareto/internal/adapters/hasher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pareto/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pareto/internal/adapters/postgres" //nolint:depguard // Wired in app layer
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/pareto/internal/engine/optimizer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			postgres.NodeID,
			hasher.NodeID,
			cas.NodeID,
			optimizer.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    app,
				Logger: log,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.PlanLoader](ctx)
	if err != nil {
		return nil, err
	}

	repo, err := graft.Dep[ports.PlanRepository](ctx)
	if err != nil {
		return nil, err
	}

	h, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.ResultStore](ctx)
	if err != nil {
		return nil, err
	}

	opt, err := graft.Dep[*optimizer.Optimizer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, repo, h, store, opt, log), nil
}
