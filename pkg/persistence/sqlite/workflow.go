package sqlite

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

// timeLayout is a fixed-width RFC 3339 variant. Unlike time.RFC3339Nano it
// never trims trailing zeros, so stored UTC timestamps sort chronologically
// as plain text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// WorkflowRepository handles workflow operations for SQLite.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository backed by db.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger.With("repository", "workflow"),
	}
}

// GetAll returns all non-deleted workflows, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT id
			, name
			, created_at
			, updated_at
			, deleted_at
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}(ctx, r)

	var workflows []*models.Workflow

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	for _, workflow := range workflows {
		components, err := r.loadComponents(ctx, workflow.ID)
		if err != nil {
			return nil, err
		}

		workflow.Components = components
	}

	return workflows, nil
}

// GetByID returns a workflow by ID, or (nil, nil) when no workflow exists.
func (r *WorkflowRepository) GetByID(ctx context.Context, workflowID string) (*models.Workflow, error) {
	query := `
		SELECT id
			, name
			, created_at
			, updated_at
			, deleted_at
		FROM workflows
		WHERE id = ? AND deleted_at IS NULL`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, workflowID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewWorkflowError("GetByID", workflowID, err)
	}

	components, err := r.loadComponents(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	workflow.Components = components

	return workflow, nil
}

// Save persists a workflow and its components, replacing any previous
// component rows. A zero ID is filled with a fresh UUID.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) (err error) {
	if workflow.ID == "" {
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return fmt.Errorf("failed to generate workflow id: %w", idErr)
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
		INSERT INTO workflows (id, name, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at,
			deleted_at = NULL`

	_, err = transaction.ExecContext(ctx, upsert,
		workflow.ID,
		workflow.Name,
		workflow.CreatedAt.UTC().Format(timeLayout),
		workflow.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	_, err = transaction.ExecContext(ctx, `DELETE FROM workflow_components WHERE workflow_id = ?`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to clear workflow components: %w", err)
	}

	insert := `
		INSERT INTO workflow_components (workflow_id, position, type, settings)
		VALUES (?, ?, ?, ?)`

	for position, component := range workflow.Components {
		settings, marshalErr := sqlbase.EncodeSettings(component)
		if marshalErr != nil {
			err = marshalErr

			return err
		}

		_, err = transaction.ExecContext(ctx, insert, workflow.ID, position, string(component.Type), settings)
		if err != nil {
			return fmt.Errorf("failed to save workflow component: %w", err)
		}
	}

	if err = transaction.Commit(); err != nil {
		return fmt.Errorf("failed to commit workflow: %w", err)
	}

	return nil
}

// Delete soft deletes a workflow. Deleting an unknown workflow is a no-op.
func (r *WorkflowRepository) Delete(ctx context.Context, workflowID string) error {
	query := `UPDATE workflows SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(timeLayout), workflowID)
	if err != nil {
		return persistence.NewWorkflowError("Delete", workflowID, err)
	}

	return nil
}

func (r *WorkflowRepository) loadComponents(ctx context.Context, workflowID string) ([]models.Component, error) {
	query := `
		SELECT type
			, settings
		FROM workflow_components
		WHERE workflow_id = ?
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow components: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}(ctx, r)

	components := make([]models.Component, 0)

	for rows.Next() {
		var (
			rawType  string
			settings []byte
		)

		if err := rows.Scan(&rawType, &settings); err != nil {
			return nil, fmt.Errorf("failed to scan workflow component: %w", err)
		}

		component, err := sqlbase.DecodeComponent(workflowID, rawType, settings)
		if err != nil {
			return nil, err
		}

		components = append(components, component)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow components: %w", err)
	}

	return components, nil
}

func scanWorkflow(row interface{ Scan(dest ...any) error }) (*models.Workflow, error) {
	var (
		workflow  models.Workflow
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := row.Scan(&workflow.ID, &workflow.Name, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	workflow.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, persistence.NewWorkflowError("scanWorkflow", workflow.ID,
			fmt.Errorf("%w: %w", persistence.ErrWorkflowCorrupted, err))
	}

	workflow.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, persistence.NewWorkflowError("scanWorkflow", workflow.ID,
			fmt.Errorf("%w: %w", persistence.ErrWorkflowCorrupted, err))
	}

	if deletedAt.Valid {
		parsed, err := time.Parse(timeLayout, deletedAt.String)
		if err != nil {
			return nil, persistence.NewWorkflowError("scanWorkflow", workflow.ID,
				fmt.Errorf("%w: %w", persistence.ErrWorkflowCorrupted, err))
		}

		workflow.DeletedAt = &parsed
	}

	return &workflow, nil
}
