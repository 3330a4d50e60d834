package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComponentType_AcceptsClosedSet(t *testing.T) {
	for _, raw := range []string{"import", "shadow", "crop", "export"} {
		parsed, err := ParseComponentType(raw)
		require.NoError(t, err)
		assert.Equal(t, ComponentType(raw), parsed)
	}
}

func TestParseComponentType_RejectsUnknownType(t *testing.T) {
	_, err := ParseComponentType("resize")
	require.Error(t, err)

	var shapeErr *ShapeError

	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "type", shapeErr.Field)
	assert.Contains(t, shapeErr.Message, `"resize"`)
}

func TestComponentType_UnmarshalJSON_RejectsNonString(t *testing.T) {
	var componentType ComponentType

	err := json.Unmarshal([]byte(`42`), &componentType)
	require.Error(t, err)

	var shapeErr *ShapeError

	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "type", shapeErr.Field)
}

func TestComponent_DecodeKeepsTypeAndSettings(t *testing.T) {
	var component Component

	err := json.Unmarshal([]byte(`{"type":"crop","settings":{"width":800,"ratio":1.5}}`), &component)
	require.NoError(t, err)

	assert.Equal(t, ComponentTypeCrop, component.Type)
	assert.Equal(t, Settings{"width": IntSetting(800), "ratio": FloatSetting(1.5)}, component.Settings)
}

func TestComponent_DecodeRejectsUnknownType(t *testing.T) {
	var component Component

	err := json.Unmarshal([]byte(`{"type":"resize"}`), &component)
	require.Error(t, err)
}

func TestComponent_HasSettings(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected bool
	}{
		{"missing settings field", `{"type":"crop"}`, false},
		{"null settings field", `{"type":"crop","settings":null}`, false},
		{"empty settings object", `{"type":"crop","settings":{}}`, true},
		{"populated settings object", `{"type":"crop","settings":{"width":800}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var component Component

			require.NoError(t, json.Unmarshal([]byte(tt.payload), &component))
			assert.Equal(t, tt.expected, component.HasSettings())
		})
	}
}
