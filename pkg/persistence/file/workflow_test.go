package file

import (
	"context"
	"os"
	"path"
	"testing"
	"time"

	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowRepository_SaveAndGetByID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "thumbnails",
		Components: []models.Component{
			{Type: models.ComponentTypeImport, Settings: models.Settings{"source": models.StringSetting("s3://in")}},
			{Type: models.ComponentTypeCrop, Settings: models.Settings{"width": models.IntSetting(800), "ratio": models.FloatSetting(1.0)}},
			{Type: models.ComponentTypeExport, Settings: models.Settings{}},
		},
	}

	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "thumbnails", loaded.Name)
	require.Len(t, loaded.Components, 3)

	// Component order and setting identity survive the round-trip.
	assert.Equal(t, models.ComponentTypeImport, loaded.Components[0].Type)
	assert.Equal(t, models.ComponentTypeCrop, loaded.Components[1].Type)
	assert.Equal(t, models.ComponentTypeExport, loaded.Components[2].Type)
	assert.Equal(t, models.IntSetting(800), loaded.Components[1].Settings["width"])
	assert.Equal(t, models.FloatSetting(1.0), loaded.Components[1].Settings["ratio"])

	// An empty settings object stays present rather than collapsing to absent.
	assert.True(t, loaded.Components[2].HasSettings())
	assert.Empty(t, loaded.Components[2].Settings)

	assert.False(t, loaded.CreatedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestWorkflowRepository_AbsentSettingsStayAbsent(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:   "wf-bare",
		Name: "bare",
		Components: []models.Component{
			{Type: models.ComponentTypeImport},
			{Type: models.ComponentTypeExport},
		},
	}

	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, "wf-bare")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	for _, component := range loaded.Components {
		assert.False(t, component.HasSettings())
	}
}

func TestWorkflowRepository_GetByID_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflow, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, workflow)
}

func TestWorkflowRepository_GetByID_CorruptedDocument(t *testing.T) {
	root := t.TempDir()
	repo := NewWorkflowRepository(root)

	require.NoError(t, os.MkdirAll(path.Join(root, "workflows"), 0750))
	require.NoError(t, os.WriteFile(path.Join(root, "workflows", "bad.json"), []byte("{not json"), 0600))

	_, err := repo.GetByID(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowCorrupted(err))
}

func TestWorkflowRepository_GetAll_NewestFirst(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	older := &models.Workflow{ID: "wf-old", Name: "old", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &models.Workflow{ID: "wf-new", Name: "new", CreatedAt: time.Now().UTC()}

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	workflows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	assert.Equal(t, "wf-new", workflows[0].ID)
	assert.Equal(t, "wf-old", workflows[1].ID)
}

func TestWorkflowRepository_GetAll_EmptyRoot(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflows, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	workflow := &models.Workflow{ID: "wf-del", Name: "short lived"}
	require.NoError(t, repo.Save(ctx, workflow))

	require.NoError(t, repo.Delete(ctx, "wf-del"))

	loaded, err := repo.GetByID(ctx, "wf-del")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting again is a no-op.
	require.NoError(t, repo.Delete(ctx, "wf-del"))
}

func TestPersistence_HealthCheck(t *testing.T) {
	healthy := NewPersistence(t.TempDir())
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	missing := NewPersistence("file:///nonexistent/lensflow-test-root")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
