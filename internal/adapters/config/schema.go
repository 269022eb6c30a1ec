package config

import "gopkg.in/yaml.v3"

// BindingsFile represents the structure of a binding document.
type BindingsFile struct {
	Version  string       `yaml:"version"`
	Bindings []BindingDTO `yaml:"bindings" validate:"required,min=1,dive"`
}

// BindingDTO represents one binding declaration in a binding document.
type BindingDTO struct {
	ID                 string    `yaml:"id"`
	Node               string    `yaml:"node" validate:"required"`
	Target             string    `yaml:"target" validate:"required"`
	Sources            string    `yaml:"sources" validate:"required,sources"`
	Mode               string    `yaml:"mode" validate:"omitempty,mode"`
	ConverterName      string    `yaml:"converterName" validate:"excluded_with=ConverterPath"`
	ConverterPath      string    `yaml:"converterPath"`
	ConverterParameter any       `yaml:"converterParameter"`
	NotificationName   string    `yaml:"notificationName" validate:"excluded_with=NotificationPath"`
	NotificationPath   string    `yaml:"notificationPath"`
	NullValue          yaml.Node `yaml:"nullValue" validate:"-"`
	FallbackValue      yaml.Node `yaml:"fallbackValue" validate:"-"`
	CacheStrategy      string    `yaml:"cacheStrategy" validate:"omitempty,cachestrategy"`
}

// SceneFile represents the structure of a scene document.
type SceneFile struct {
	Version string       `yaml:"version"`
	Scene   SceneNodeDTO `yaml:"scene" validate:"required"`
}

// SceneNodeDTO represents one node of a scene document.
type SceneNodeDTO struct {
	Name        string         `yaml:"name" validate:"required"`
	Type        string         `yaml:"type"`
	Properties  map[string]any `yaml:"properties"`
	DataContext any            `yaml:"dataContext"`
	Children    []SceneNodeDTO `yaml:"children" validate:"dive"`
}
