package ports

import "go.trai.ch/tether/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks

// BindingLoader defines the interface for loading binding documents.
type BindingLoader interface {
	// Load reads the binding document at path and returns its declarations in order.
	Load(path string) ([]domain.BindingDecl, error)
}

// SceneLoader defines the interface for loading scene documents.
type SceneLoader interface {
	// Load reads the scene document at path and returns its root node.
	Load(path string) (domain.SceneNode, error)
}
