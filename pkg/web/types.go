package web

import (
	"github.com/moogar0880/problems"

	"github.com/lensflow/lensflow/pkg/validation"
)

// CreateWorkflowResponse identifies a newly created workflow.
type CreateWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
}

// ShapeProblem is an RFC 7807 problem carrying the field errors that made a
// request body unreadable as a workflow document.
type ShapeProblem struct {
	problems.Problem

	Errors map[string][]string `json:"errors"`
}

// ViolationsProblem is an RFC 7807 problem carrying every pipeline rule
// violation found in an otherwise well-formed workflow.
type ViolationsProblem struct {
	problems.Problem

	Violations []validation.Violation `json:"violations"`
}
