// Package config loads binding documents and scene documents from YAML.
package config

import (
	"fmt"
	"os"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// BindingLoader implements ports.BindingLoader using a YAML file.
type BindingLoader struct {
	Logger ports.Logger
}

// NewBindingLoader creates a new BindingLoader with the given logger.
func NewBindingLoader(logger ports.Logger) *BindingLoader {
	return &BindingLoader{Logger: logger}
}

// Load reads the binding document at path. Declarations keep their document order.
func (l *BindingLoader) Load(path string) ([]domain.BindingDecl, error) {
	var file BindingsFile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, err
	}
	if err := validateStruct(path, &file); err != nil {
		return nil, err
	}

	decls := make([]domain.BindingDecl, 0, len(file.Bindings))
	seen := make(map[string]bool, len(file.Bindings))
	for i := range file.Bindings {
		dto := &file.Bindings[i]
		id := dto.ID
		if id == "" {
			id = dto.Node + "." + dto.Target
		}
		if seen[id] {
			err := zerr.With(domain.Annotate(domain.ErrConfigInvalid, "path", path), "duplicate_id", id)
			return nil, err
		}
		seen[id] = true

		spec, err := buildSpec(dto)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "path", path), "binding", id)
		}
		if !spec.HasResolvableSource() {
			l.Logger.Warn(fmt.Sprintf("binding %s in %s has no valid source and will use its fallback value", id, path))
		}
		decls = append(decls, domain.BindingDecl{ID: id, Node: dto.Node, Spec: spec})
	}
	return decls, nil
}

func buildSpec(dto *BindingDTO) (domain.BindingSpec, error) {
	mode, err := domain.ParseMode(dto.Mode)
	if err != nil {
		return domain.BindingSpec{}, err
	}
	spec, err := domain.NewBindingSpec(dto.Sources, dto.Target, mode)
	if err != nil {
		return domain.BindingSpec{}, err
	}
	if spec.CacheStrategy, err = domain.ParseCacheStrategy(dto.CacheStrategy); err != nil {
		return domain.BindingSpec{}, err
	}
	spec.Converter = domain.Ref{Name: dto.ConverterName, Path: dto.ConverterPath}
	spec.ConverterParameter = dto.ConverterParameter
	spec.Notification = domain.Ref{Name: dto.NotificationName, Path: dto.NotificationPath}

	if spec.NullValue, err = optional(&dto.NullValue); err != nil {
		return domain.BindingSpec{}, zerr.With(err, "field", "nullValue")
	}
	if spec.FallbackValue, err = optional(&dto.FallbackValue); err != nil {
		return domain.BindingSpec{}, zerr.With(err, "field", "fallbackValue")
	}
	return spec, nil
}

// optional distinguishes an absent key from an explicit null: the former leaves the
// substitute unset, the latter configures nil.
func optional(n *yaml.Node) (domain.Optional, error) {
	if n.Kind == 0 {
		return domain.Optional{}, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return domain.Optional{}, domain.Because(domain.ErrConfigParseFailed, err)
	}
	return domain.Some(v), nil
}

// SceneLoader implements ports.SceneLoader using a YAML file.
type SceneLoader struct{}

// NewSceneLoader creates a new SceneLoader.
func NewSceneLoader() *SceneLoader {
	return &SceneLoader{}
}

// Load reads the scene document at path and returns its root node.
func (l *SceneLoader) Load(path string) (domain.SceneNode, error) {
	var file SceneFile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return domain.SceneNode{}, err
	}
	if err := validateStruct(path, &file); err != nil {
		return domain.SceneNode{}, err
	}
	return toSceneNode(file.Scene), nil
}

func toSceneNode(dto SceneNodeDTO) domain.SceneNode {
	n := domain.SceneNode{
		Name:        dto.Name,
		Type:        dto.Type,
		Properties:  dto.Properties,
		DataContext: dto.DataContext,
	}
	if len(dto.Children) > 0 {
		n.Children = make([]domain.SceneNode, len(dto.Children))
		for i, c := range dto.Children {
			n.Children[i] = toSceneNode(c)
		}
	}
	return n
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.With(domain.Because(domain.ErrConfigReadFailed, err), "path", path)
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.With(domain.Because(domain.ErrConfigParseFailed, parseErr), "path", path)
	}

	return nil
}
