package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/persistence/sqlbase"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetAll returns all workflows that are not soft deleted, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , created_at
		  , updated_at
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	for _, workflow := range workflows {
		workflow.Components, err = r.loadComponents(ctx, workflow.ID)
		if err != nil {
			return nil, err
		}
	}

	return workflows, nil
}

// GetByID retrieves a workflow by its ID, returning (nil, nil) when no
// active workflow matches.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	// Non-UUID identifiers can never match a stored workflow.
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `
		SELECT
			id
		  , name
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	workflow.Components, err = r.loadComponents(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Save upserts the workflow row and replaces its component rows in a single
// transaction.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow id: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = transaction.Rollback()
		}
	}()

	upsert := `
		INSERT INTO workflows (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = transaction.ExecContext(ctx, upsert, workflow.ID, workflow.Name, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM workflow_components WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	insert := `
		INSERT INTO workflow_components (workflow_id, position, type, settings)
		VALUES ($1, $2, $3, $4)
	`

	for position, component := range workflow.Components {
		settings, marshalErr := sqlbase.EncodeSettings(component)
		if marshalErr != nil {
			err = persistence.NewWorkflowError("Save", workflow.ID, marshalErr)

			return err
		}

		_, err = transaction.ExecContext(ctx, insert, workflow.ID, position, string(component.Type), settings)
		if err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, err)
		}
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow. Deleting a missing or already deleted
// workflow is a no-op, matching the other backends.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

// loadComponents returns the component rows for a workflow in pipeline
// order. Stored workflows are normalized, so the result is never nil.
func (r *WorkflowRepository) loadComponents(ctx context.Context, workflowID string) ([]models.Component, error) {
	query := `
		SELECT
			type
		  , settings
		FROM workflow_components
		WHERE workflow_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query components for workflow %s: %w", workflowID, err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	components := make([]models.Component, 0)

	for rows.Next() {
		var (
			rawType  string
			settings []byte
		)

		err = rows.Scan(&rawType, &settings)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}

		component, err := sqlbase.DecodeComponent(workflowID, rawType, settings)
		if err != nil {
			return nil, err
		}

		components = append(components, component)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate components for workflow %s: %w", workflowID, err)
	}

	return components, nil
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*models.Workflow, error) {
	var workflow models.Workflow

	err := scanner.Scan(&workflow.ID, &workflow.Name, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return &workflow, nil
}
