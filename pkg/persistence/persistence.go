// Package persistence provides the data storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/lensflow/lensflow/pkg/models"
)

// Persistence is the storage contract shared by every backend. Lookups for
// missing workflows return (nil, nil); translating that into a not-found
// error is the caller's concern.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
