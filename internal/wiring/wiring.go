// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tether/internal/adapters/config"
	_ "go.trai.ch/tether/internal/adapters/dispatch"
	_ "go.trai.ch/tether/internal/adapters/logger"
	_ "go.trai.ch/tether/internal/adapters/metrics"
	_ "go.trai.ch/tether/internal/adapters/objgraph"
	_ "go.trai.ch/tether/internal/adapters/telemetry"
	_ "go.trai.ch/tether/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/tether/internal/app"
)
