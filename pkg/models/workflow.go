// Package models defines the domain types for lensflow: workflow
// submissions, their components, and component settings.
package models

import "time"

// Workflow is a named pipeline of components. Components keep the order in
// which they were submitted; a workflow with no components at all is valid.
type Workflow struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"       validate:"required"`
	Components []Component `json:"components"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	DeletedAt  *time.Time  `json:"deleted_at,omitempty"`
}
