package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pareto/internal/adapters/logger"
	"go.trai.ch/pareto/internal/core/ports"
)

// NodeID is the unique identifier for the plan loader Graft node.
const NodeID graft.ID = "adapter.plan_loader"

func init() {
	graft.Register(graft.Node[ports.PlanLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.PlanLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
