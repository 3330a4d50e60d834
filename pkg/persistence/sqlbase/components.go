package sqlbase

import (
	"encoding/json"
	"fmt"

	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/persistence"
)

// EncodeSettings renders a component's settings for storage in a JSON
// column. A component without settings maps to SQL NULL so absence survives
// storage; an empty settings object stays '{}'.
func EncodeSettings(component models.Component) (any, error) {
	if !component.HasSettings() {
		return nil, nil
	}

	encoded, err := json.Marshal(component.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	return encoded, nil
}

// DecodeComponent rebuilds a component from its stored column values.
func DecodeComponent(workflowID, rawType string, settings []byte) (models.Component, error) {
	componentType, err := models.ParseComponentType(rawType)
	if err != nil {
		return models.Component{}, persistence.NewWorkflowError("DecodeComponent", workflowID,
			fmt.Errorf("%w: %w", persistence.ErrWorkflowCorrupted, err))
	}

	component := models.Component{Type: componentType}

	if settings != nil {
		err = json.Unmarshal(settings, &component.Settings)
		if err != nil {
			return models.Component{}, persistence.NewWorkflowError("DecodeComponent", workflowID,
				fmt.Errorf("%w: %w", persistence.ErrWorkflowCorrupted, err))
		}
	}

	return component, nil
}
