package models

import (
	"encoding/json"
	"fmt"
)

// ComponentType identifies the kind of processing a component performs. The
// set of types is closed: workflows are assembled only from the four stages
// below, and anything else is rejected at the decoding boundary.
type ComponentType string

const (
	ComponentTypeImport ComponentType = "import"
	ComponentTypeShadow ComponentType = "shadow"
	ComponentTypeCrop   ComponentType = "crop"
	ComponentTypeExport ComponentType = "export"
)

// ParseComponentType converts a raw string into a ComponentType, rejecting
// anything outside the closed set.
func ParseComponentType(raw string) (ComponentType, error) {
	switch componentType := ComponentType(raw); componentType {
	case ComponentTypeImport, ComponentTypeShadow, ComponentTypeCrop, ComponentTypeExport:
		return componentType, nil
	}

	return "", &ShapeError{
		Field:   "type",
		Message: fmt.Sprintf("unknown component type %q (expected one of: import, shadow, crop, export)", raw),
	}
}

func (t *ComponentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ShapeError{Field: "type", Message: "component type must be a string", Err: err}
	}

	parsed, err := ParseComponentType(raw)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Component is a single stage of a workflow pipeline.
type Component struct {
	Type     ComponentType `json:"type"     validate:"required"`
	Settings Settings      `json:"settings"`
}

// HasSettings reports whether the component was submitted with a settings
// object at all. An empty object still counts as present; only a missing or
// null settings field counts as absent.
func (c Component) HasSettings() bool {
	return c.Settings != nil
}
