// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/lensflow/lensflow/pkg/metrics"
	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	metrics         *metrics.Metrics
}

// NewAPIHandlers wires the handler set. metrics may be nil when the process
// runs without instrumentation.
func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	m *metrics.Metrics,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		metrics:         m,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if workflows == nil {
		workflows = []*models.Workflow{}
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

// CreateWorkflow accepts a workflow document, rejects it with a 422 problem
// when its shape is unreadable or its pipeline breaks a rule, and otherwise
// persists it and answers with the new workflow ID.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	body := c.Body()

	fieldErrors, err := models.CheckShape(body)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if fieldErrors != nil {
		h.countShapeRejection()

		return invalidShape(c, fieldErrors)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(body, &workflow); err != nil {
		h.countShapeRejection()

		var shapeErr *models.ShapeError
		if errors.As(err, &shapeErr) {
			field := shapeErr.Field
			if field == "" {
				field = "(root)"
			}

			return invalidShape(c, map[string][]string{field: {shapeErr.Message}})
		}

		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(workflow); err != nil {
		h.countShapeRejection()

		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return invalidShape(c, tagErrors(validationErrors))
		}

		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), &workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateWorkflowResponse{
		WorkflowID: created.ID,
	})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Lensflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Lensflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) countShapeRejection() {
	if h.metrics != nil {
		h.metrics.ShapeRejections.Inc()
	}
}

// tagErrors converts struct tag failures into the field error map the shape
// problem carries.
func tagErrors(validationErrors validator.ValidationErrors) map[string][]string {
	fieldErrors := make(map[string][]string, len(validationErrors))

	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		fieldErrors[field] = append(fieldErrors[field], fmt.Sprintf("failed on the %q rule", fieldErr.Tag()))
	}

	return fieldErrors
}
