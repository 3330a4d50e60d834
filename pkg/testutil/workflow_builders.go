// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/lensflow/lensflow/pkg/models"
)

// CreateTestWorkflow creates a valid workflow with default values that can be
// adjusted through overrides.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:   uuid.New().String(),
		Name: "Test Workflow",
		Components: []models.Component{
			{Type: models.ComponentTypeImport},
			{Type: models.ComponentTypeCrop},
			{Type: models.ComponentTypeExport},
		},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithID sets the workflow ID.
func WithID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithName sets the workflow name.
func WithName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithComponents replaces the component list.
func WithComponents(components ...models.Component) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Components = components
	}
}
