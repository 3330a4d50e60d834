package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lensflow/lensflow/pkg/cache"
	"github.com/lensflow/lensflow/pkg/channels/gochannel"
	"github.com/lensflow/lensflow/pkg/eventbus"
	"github.com/lensflow/lensflow/pkg/events"
	"github.com/lensflow/lensflow/pkg/metrics"
	"github.com/lensflow/lensflow/pkg/mocks"
	"github.com/lensflow/lensflow/pkg/models"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/persistence/file"
	"github.com/lensflow/lensflow/pkg/validation"
)

func validPipeline() []models.Component {
	return []models.Component{
		{Type: models.ComponentTypeImport},
		{Type: models.ComponentTypeShadow},
		{Type: models.ComponentTypeCrop},
		{Type: models.ComponentTypeExport},
	}
}

func setupTestCache(t *testing.T) *cache.Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	store := cache.NewFromClient(client)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestNewWorkflow(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	assert.NotNil(t, service)
	assert.Equal(t, persistence, service.persistence)
}

func TestWorkflow_Create(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	workflow := &models.Workflow{
		Name:       "Product photo pipeline",
		Components: validPipeline(),
	}

	created, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	require.Len(t, created.Components, 4)
	assert.Equal(t, models.ComponentTypeImport, created.Components[0].Type)
	assert.Equal(t, models.ComponentTypeExport, created.Components[3].Type)

	stored, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
}

func TestWorkflow_Create_NormalizesMissingComponents(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	workflow := &models.Workflow{Name: "Named but empty"}

	created, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)

	assert.NotNil(t, created.Components)
	assert.Empty(t, created.Components)

	// The caller's request stays untouched.
	assert.Nil(t, workflow.Components)
	assert.Empty(t, workflow.ID)
}

func TestWorkflow_Create_NameRequired(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	created, err := service.Create(t.Context(), &models.Workflow{Name: "   "})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, IsValidationError(err))

	created, err = service.Create(t.Context(), nil)
	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_Create_ReportsEveryViolation(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	service := NewWorkflow(persistence, WithMetrics(m))

	workflow := &models.Workflow{
		Name: "Backwards",
		Components: []models.Component{
			{Type: models.ComponentTypeExport},
			{Type: models.ComponentTypeImport},
		},
	}

	created, err := service.Create(t.Context(), workflow)
	require.Error(t, err)
	assert.Nil(t, created)
	assert.False(t, IsValidationError(err))

	invalid, ok := validation.AsInvalidWorkflow(err)
	require.True(t, ok)
	require.Len(t, invalid.Violations, 2)
	assert.Equal(t, validation.CodeImportNotFirst, invalid.Violations[0].Code)
	assert.Equal(t, validation.CodeExportNotLast, invalid.Violations[1].Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("import_not_first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("export_not_last")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkflowsCreated))

	// Nothing was persisted.
	workflows, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestWorkflow_Create_CountsCreated(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	service := NewWorkflow(persistence, WithMetrics(m))

	_, err := service.Create(t.Context(), &models.Workflow{Name: "Counted", Components: validPipeline()})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowsCreated))
}

func TestWorkflow_Create_PublishesEvent(t *testing.T) {
	publisher, subscriber, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(publisher, subscriber)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	received := make(chan *events.WorkflowCreated, 1)
	require.NoError(t, bus.Handle(events.WorkflowCreatedEvent, func(ctx context.Context, event any) error {
		if created, ok := event.(*events.WorkflowCreated); ok {
			received <- created
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence, WithEventBus(bus))

	created, err := service.Create(t.Context(), &models.Workflow{
		Name:       "Announced",
		Components: validPipeline(),
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, created.ID, event.WorkflowID)
		assert.Equal(t, "Announced", event.Name)
		assert.Equal(t, 4, event.ComponentCount)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive workflow created event")
	}
}

func TestWorkflow_Create_PublishFailureDoesNotFailCreate(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	filePersistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(filePersistence, WithEventBus(bus))

	created, err := service.Create(t.Context(), &models.Workflow{
		Name:       "Resilient",
		Components: validPipeline(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	bus.AssertExpectations(t)
}

func TestWorkflow_FetchByID_NotFound(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	workflow, err := service.FetchByID(t.Context(), "non-existent")
	assert.Error(t, err)
	assert.Nil(t, workflow)
	assert.Contains(t, err.Error(), "workflow not found")
}

func TestWorkflow_FetchByID_UsesCache(t *testing.T) {
	store := setupTestCache(t)
	filePersistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(filePersistence, WithCache(store))

	created, err := service.Create(t.Context(), &models.Workflow{
		Name:       "Cached",
		Components: validPipeline(),
	})
	require.NoError(t, err)

	// Remove the stored copy behind the service's back. The cached entry
	// still serves reads.
	require.NoError(t, filePersistence.DeleteWorkflow(t.Context(), created.ID))

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", fetched.Name)
}

func TestWorkflow_Delete(t *testing.T) {
	store := setupTestCache(t)
	filePersistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(filePersistence, WithCache(store))

	created, err := service.Create(t.Context(), &models.Workflow{
		Name:       "Disposable",
		Components: validPipeline(),
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	workflow, err := service.FetchByID(t.Context(), created.ID)
	assert.Error(t, err)
	assert.Nil(t, workflow)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = service.Delete(t.Context(), created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflow_HealthCheck(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	message, healthy := service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)
}
