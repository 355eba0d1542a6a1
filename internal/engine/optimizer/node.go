package optimizer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pareto/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pareto/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pareto/internal/core/ports"
)

// NodeID is the unique identifier for the optimizer Graft node.
const NodeID graft.ID = "engine.optimizer"

func init() {
	graft.Register(graft.Node[*Optimizer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Optimizer, error) {
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(tracer, log), nil
		},
	})
}
