package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pareto/internal/core/ports"
)

// NodeID is the unique identifier for the result store Graft node.
const NodeID graft.ID = "adapter.result_store"

func init() {
	graft.Register(graft.Node[ports.ResultStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ResultStore, error) {
			return NewStore(DefaultDir()), nil
		},
	})
}
