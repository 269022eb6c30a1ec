package objgraph

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tether/internal/core/ports"
)

// NodeID is the graft node that provides the reference host.
const NodeID graft.ID = "adapter.host"

func init() {
	graft.Register(graft.Node[ports.Host]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Host, error) {
			return NewHost(), nil
		},
	})
}
