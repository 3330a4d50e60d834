package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lensflow/lensflow/pkg/cache"
	"github.com/lensflow/lensflow/pkg/eventbus"
	"github.com/lensflow/lensflow/pkg/events"
	"github.com/lensflow/lensflow/pkg/metrics"
	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/otelhelper"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/validation"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// Workflow coordinates pipeline validation, persistence, and the optional
// side channels (events, cache, metrics) around workflow operations.
type Workflow struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	cache       *cache.Store
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

type WorkflowOption func(*Workflow)

// WithEventBus publishes lifecycle events after successful writes.
func WithEventBus(bus eventbus.EventBus) WorkflowOption {
	return func(w *Workflow) {
		w.eventBus = bus
	}
}

// WithCache serves reads through the given cache.
func WithCache(store *cache.Store) WorkflowOption {
	return func(w *Workflow) {
		w.cache = store
	}
}

// WithMetrics reports workflow counters.
func WithMetrics(m *metrics.Metrics) WorkflowOption {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithTracer overrides the default tracer.
func WithTracer(tracer trace.Tracer) WorkflowOption {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) WorkflowOption {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		persistence: persistence,
		tracer:      otel.Tracer("lensflow.services"),
		logger:      slog.Default().With("module", "workflow-service"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all stored workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID, consulting the cache first when
// one is configured. Cache failures only cost the round trip to persistence.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	if w.cache != nil {
		cached, err := w.cache.GetWorkflow(ctx, id)
		if err == nil {
			return cached, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			w.logger.WarnContext(ctx, "Workflow cache read failed", "workflow_id", id, "error", err)
		}
	}

	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("FetchByID", id, persistence.ErrWorkflowNotFound)
	}

	w.cacheWorkflow(ctx, workflow)

	return workflow, nil
}

// Create validates and persists a new workflow. The returned workflow is the
// normalized copy: component order preserved and a missing component list
// replaced with an empty one. The input is never mutated.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create")
	defer span.End()

	if workflow == nil {
		return nil, NewValidationError("Create", "WORKFLOW_NIL", "workflow cannot be nil", ErrWorkflowNil)
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, NewValidationError("Create", "WORKFLOW_NAME_REQUIRED", "workflow name is required", ErrWorkflowNameRequired)
	}

	normalized, err := validation.ValidateWorkflow(workflow)
	if err != nil {
		w.recordViolations(err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := time.Now().UTC()
	normalized.ID = uuid.New().String()
	normalized.CreatedAt = now
	normalized.UpdatedAt = now

	span.SetAttributes(
		attribute.String(otelhelper.WorkflowIDKey, normalized.ID),
		attribute.String(otelhelper.WorkflowNameKey, normalized.Name),
		attribute.Int(otelhelper.ComponentCountKey, len(normalized.Components)),
	)

	if err := w.persistence.SaveWorkflow(ctx, normalized); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	if w.metrics != nil {
		w.metrics.WorkflowsCreated.Inc()
	}

	w.publish(ctx, normalized.ID, events.WorkflowCreated{
		BaseEvent:      events.NewBaseEvent(events.WorkflowCreatedEvent, normalized.ID),
		Name:           normalized.Name,
		ComponentCount: len(normalized.Components),
	})

	w.cacheWorkflow(ctx, normalized)

	return normalized, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	existing, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if existing == nil {
		return persistence.NewWorkflowError("Delete", workflowID, persistence.ErrWorkflowNotFound)
	}

	if err := w.persistence.DeleteWorkflow(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	if w.cache != nil {
		if err := w.cache.InvalidateWorkflow(ctx, workflowID); err != nil {
			w.logger.WarnContext(ctx, "Workflow cache invalidation failed", "workflow_id", workflowID, "error", err)
		}
	}

	w.publish(ctx, workflowID, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, workflowID),
	})

	return nil
}

// publish sends a lifecycle event when a bus is configured. Event delivery is
// best effort and never fails the operation.
func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.eventBus == nil {
		return
	}

	if err := w.eventBus.Publish(ctx, key, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish workflow event",
			"event_type", event.GetType(), "workflow_id", key, "error", err)
	}
}

func (w *Workflow) cacheWorkflow(ctx context.Context, workflow *models.Workflow) {
	if w.cache == nil {
		return
	}

	if err := w.cache.SetWorkflow(ctx, workflow); err != nil {
		w.logger.WarnContext(ctx, "Workflow cache write failed", "workflow_id", workflow.ID, "error", err)
	}
}

func (w *Workflow) recordViolations(err error) {
	if w.metrics == nil {
		return
	}

	if invalid, ok := validation.AsInvalidWorkflow(err); ok {
		for _, violation := range invalid.Violations {
			w.metrics.ValidationFailures.WithLabelValues(string(violation.Code)).Inc()
		}
	}
}
