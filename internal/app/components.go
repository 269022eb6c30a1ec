package app

import (
	"go.trai.ch/tether/internal/adapters/metrics" //nolint:depguard // Exposed to the CLI
	"go.trai.ch/tether/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App     *App
	Logger  ports.Logger
	Metrics *metrics.Registry
}
