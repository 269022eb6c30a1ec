package dispatch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tether/internal/adapters/logger"
	"go.trai.ch/tether/internal/core/ports"
)

// NodeID is the graft node that provides the event loop.
const NodeID graft.ID = "adapter.dispatch"

func init() {
	graft.Register(graft.Node[ports.EventLoop]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.EventLoop, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoop(WithLogger(log)), nil
		},
	})
}
