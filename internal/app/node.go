package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tether/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/dispatch"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/objgraph"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tether/internal/core/ports"
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
			config.BindingLoaderNodeID,
			config.SceneLoaderNodeID,
			objgraph.NodeID,
			dispatch.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			metrics.RegistryNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	bindingLoader, err := graft.Dep[ports.BindingLoader](ctx)
	if err != nil {
		return nil, err
	}

	sceneLoader, err := graft.Dep[ports.SceneLoader](ctx)
	if err != nil {
		return nil, err
	}

	host, err := graft.Dep[ports.Host](ctx)
	if err != nil {
		return nil, err
	}

	loop, err := graft.Dep[ports.EventLoop](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(bindingLoader, sceneLoader, host, loop, log, tracer, m, w), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	registry, err := graft.Dep[*metrics.Registry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:     app,
		Logger:  log,
		Metrics: registry,
	}, nil
}
