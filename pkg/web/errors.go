package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/services"
	"github.com/lensflow/lensflow/pkg/validation"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("workflow_not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// invalidShape rejects a request whose body is not a well-formed workflow
// document, listing every field problem found.
func invalidShape(c fiber.Ctx, fieldErrors map[string][]string) error {
	base := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
		WithInstance(c.Path()).
		WithType("invalid_shape").
		WithDetail("Request body is not a valid workflow document")

	return c.Status(fiber.StatusUnprocessableEntity).JSON(&ShapeProblem{
		Problem: *base,
		Errors:  fieldErrors,
	})
}

// workflowInvalid rejects a well-formed workflow that breaks pipeline rules,
// listing every violation.
func workflowInvalid(c fiber.Ctx, violations []validation.Violation) error {
	base := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
		WithInstance(c.Path()).
		WithType("workflow_invalid").
		WithDetail("Workflow violates pipeline rules")

	return c.Status(fiber.StatusUnprocessableEntity).JSON(&ViolationsProblem{
		Problem:    *base,
		Violations: violations,
	})
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	if invalid, ok := validation.AsInvalidWorkflow(err); ok {
		return workflowInvalid(c, invalid.Violations)
	}

	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "Workflow not found")

	default:
		return internalError(c, err)
	}
}
