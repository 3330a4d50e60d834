package sqlite

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensflow/lensflow/pkg/models"
)

func setupStore(t *testing.T) *Persistence {
	t.Helper()

	store, err := NewPersistence(slog.Default(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	return store
}

func TestWorkflowRepository_SaveAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{
		Name: "Product photo pipeline",
		Components: []models.Component{
			{Type: models.ComponentTypeImport, Settings: models.Settings{
				"source": models.StringSetting("s3://photos/raw"),
			}},
			{Type: models.ComponentTypeCrop, Settings: models.Settings{
				"width": models.IntSetting(800),
				"ratio": models.FloatSetting(1.0),
			}},
			{Type: models.ComponentTypeExport, Settings: models.Settings{}},
		},
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow))
	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Components, 3)
	assert.Equal(t, models.ComponentTypeImport, loaded.Components[0].Type)
	assert.Equal(t, models.ComponentTypeCrop, loaded.Components[1].Type)
	assert.Equal(t, models.ComponentTypeExport, loaded.Components[2].Type)

	width := loaded.Components[1].Settings["width"]
	assert.Equal(t, models.SettingKindInt, width.Kind())
	assert.Equal(t, int64(800), width.Value())

	ratio := loaded.Components[1].Settings["ratio"]
	assert.Equal(t, models.SettingKindFloat, ratio.Kind())
	assert.InDelta(t, 1.0, ratio.Value(), 0.0001)

	assert.True(t, loaded.Components[2].HasSettings())
	assert.Empty(t, loaded.Components[2].Settings)
}

func TestWorkflowRepository_AbsentSettingsStayAbsent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{
		Name: "Bare pipeline",
		Components: []models.Component{
			{Type: models.ComponentTypeImport},
			{Type: models.ComponentTypeExport},
		},
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Components, 2)

	assert.False(t, loaded.Components[0].HasSettings())
	assert.False(t, loaded.Components[1].HasSettings())
}

func TestWorkflowRepository_GetByID_NotFound(t *testing.T) {
	store := setupStore(t)

	loaded, err := store.WorkflowByID(context.Background(), "missing-workflow")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWorkflowRepository_ResaveReplacesComponents(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{
		Name: "Shrinking pipeline",
		Components: []models.Component{
			{Type: models.ComponentTypeImport},
			{Type: models.ComponentTypeShadow},
			{Type: models.ComponentTypeCrop},
			{Type: models.ComponentTypeExport},
		},
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	workflow.Components = workflow.Components[:2]
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Components, 2)
	assert.Equal(t, models.ComponentTypeImport, loaded.Components[0].Type)
	assert.Equal(t, models.ComponentTypeShadow, loaded.Components[1].Type)
}

func TestWorkflowRepository_GetAll_NewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older := &models.Workflow{
		Name:      "Older",
		CreatedAt: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &models.Workflow{
		Name:      "Newer",
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 500, time.UTC),
	}

	require.NoError(t, store.SaveWorkflow(ctx, older))
	require.NoError(t, store.SaveWorkflow(ctx, newer))

	workflows, err := store.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "Newer", workflows[0].Name)
	assert.Equal(t, "Older", workflows[1].Name)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{Name: "Disposable"}
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	workflows, err := store.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	// Deleting again is a no-op.
	require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))
}

func TestPersistence_HealthCheck(t *testing.T) {
	store := setupStore(t)

	assert.NoError(t, store.HealthCheck(context.Background()))
}
