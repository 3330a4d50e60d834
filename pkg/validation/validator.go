// Package validation implements the pipeline rules a workflow must satisfy
// before it is accepted. The rules are pure: they inspect a submission,
// never mutate it, and report every violation they find rather than stopping
// at the first one.
package validation

import (
	"fmt"

	"github.com/lensflow/lensflow/pkg/models"
)

// Code identifies a broken pipeline rule. Violations are reported in the
// order the codes are declared.
type Code string

const (
	// CodeDuplicateComponentType fires once per component type that appears
	// more than once in the pipeline.
	CodeDuplicateComponentType Code = "duplicate_component_type"

	// CodeImportNotFirst fires when the pipeline contains an import
	// component but does not start with one.
	CodeImportNotFirst Code = "import_not_first"

	// CodeExportNotLast fires when the pipeline contains an export component
	// but does not end with one.
	CodeExportNotLast Code = "export_not_last"

	// CodeInconsistentSettings fires when only some components carry a
	// settings object. An empty object counts as carrying one.
	CodeInconsistentSettings Code = "inconsistent_settings"
)

// Violation is a single broken pipeline rule.
type Violation struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// ValidateWorkflow checks every pipeline rule against the workflow. On
// success it returns a normalized copy: component order is untouched and a
// missing component list becomes an empty one. On failure it returns an
// InvalidWorkflowError listing every violation.
func ValidateWorkflow(workflow *models.Workflow) (*models.Workflow, error) {
	violations := CheckComponents(workflow.Components)
	if len(violations) > 0 {
		return nil, &InvalidWorkflowError{Violations: violations}
	}

	normalized := *workflow
	normalized.Components = cloneComponents(workflow.Components)

	return &normalized, nil
}

// CheckComponents runs the pipeline rules over a component list and returns
// every violation in rule order. A nil or empty list breaks no rule.
func CheckComponents(components []models.Component) []Violation {
	var violations []Violation

	violations = append(violations, duplicateTypeViolations(components)...)
	violations = append(violations, placementViolations(components)...)
	violations = append(violations, settingsViolations(components)...)

	return violations
}

// duplicateTypeViolations reports each component type that occurs more than
// once, in order of the type's first appearance.
func duplicateTypeViolations(components []models.Component) []Violation {
	counts := make(map[models.ComponentType]int, len(components))
	for _, component := range components {
		counts[component.Type]++
	}

	var violations []Violation

	reported := make(map[models.ComponentType]bool)

	for _, component := range components {
		if counts[component.Type] < 2 || reported[component.Type] {
			continue
		}

		reported[component.Type] = true

		violations = append(violations, Violation{
			Code: CodeDuplicateComponentType,
			Message: fmt.Sprintf(
				"component type %q appears %d times, but each type may appear at most once",
				component.Type, counts[component.Type],
			),
		})
	}

	return violations
}

// placementViolations checks the positional rules. Each rule only applies
// when its component type is present, and the two rules fail independently:
// a pipeline can misplace both import and export at once.
func placementViolations(components []models.Component) []Violation {
	if len(components) == 0 {
		return nil
	}

	hasImport, hasExport := false, false

	for _, component := range components {
		switch component.Type {
		case models.ComponentTypeImport:
			hasImport = true
		case models.ComponentTypeExport:
			hasExport = true
		}
	}

	var violations []Violation

	if hasImport && components[0].Type != models.ComponentTypeImport {
		violations = append(violations, Violation{
			Code:    CodeImportNotFirst,
			Message: `an "import" component must come first in the pipeline`,
		})
	}

	if hasExport && components[len(components)-1].Type != models.ComponentTypeExport {
		violations = append(violations, Violation{
			Code:    CodeExportNotLast,
			Message: `an "export" component must come last in the pipeline`,
		})
	}

	return violations
}

// settingsViolations enforces that settings are all-or-none across the
// pipeline. Presence is what counts: an empty settings object is present,
// a missing or null one is not.
func settingsViolations(components []models.Component) []Violation {
	withSettings := 0

	for _, component := range components {
		if component.HasSettings() {
			withSettings++
		}
	}

	if withSettings == 0 || withSettings == len(components) {
		return nil
	}

	return []Violation{{
		Code: CodeInconsistentSettings,
		Message: fmt.Sprintf(
			"settings must be set on all components or none, but %d of %d components have settings",
			withSettings, len(components),
		),
	}}
}

func cloneComponents(components []models.Component) []models.Component {
	cloned := make([]models.Component, len(components))

	for i, component := range components {
		cloned[i] = component
		cloned[i].Settings = component.Settings.Clone()
	}

	return cloned
}
