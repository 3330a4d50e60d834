package validation

import (
	"errors"
	"strings"
)

// InvalidWorkflowError carries every pipeline rule violation found in a
// submission. Validation never stops at the first broken rule, so callers
// can report all of them at once.
type InvalidWorkflowError struct {
	Violations []Violation
}

func (e *InvalidWorkflowError) Error() string {
	messages := make([]string, len(e.Violations))
	for i, violation := range e.Violations {
		messages[i] = violation.Message
	}

	return "workflow validation failed: " + strings.Join(messages, "; ")
}

// AsInvalidWorkflow extracts an InvalidWorkflowError from an error chain.
func AsInvalidWorkflow(err error) (*InvalidWorkflowError, bool) {
	var invalid *InvalidWorkflowError
	if errors.As(err, &invalid) {
		return invalid, true
	}

	return nil, false
}
