package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tether/internal/adapters/logger"
	"go.trai.ch/tether/internal/core/ports"
)

// BindingLoaderNodeID is the unique identifier for the binding loader Graft node.
const BindingLoaderNodeID graft.ID = "adapter.binding_loader"

// SceneLoaderNodeID is the unique identifier for the scene loader Graft node.
const SceneLoaderNodeID graft.ID = "adapter.scene_loader"

func init() {
	graft.Register(graft.Node[ports.BindingLoader]{
		ID:        BindingLoaderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.BindingLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewBindingLoader(log), nil
		},
	})

	graft.Register(graft.Node[ports.SceneLoader]{
		ID:        SceneLoaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SceneLoader, error) {
			return NewSceneLoader(), nil
		},
	})
}
