// Package main provides the Lensflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/lensflow/lensflow/pkg/cache"
	"github.com/lensflow/lensflow/pkg/eventbus"
	"github.com/lensflow/lensflow/pkg/metrics"
	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/services"
	"github.com/lensflow/lensflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	cache       *cache.Store
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	validate    *validator.Validate
}

// NewAPI wires the API server. The event bus, cache, metrics, and tracer may
// all be nil; the server then runs without the corresponding concern.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	cache *cache.Store,
	metrics *metrics.Metrics,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		cache:       cache,
		metrics:     metrics,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	options := []services.WorkflowOption{
		services.WithLogger(a.logger.With("module", "workflow-service")),
	}

	if a.eventBus != nil {
		options = append(options, services.WithEventBus(a.eventBus))
	}

	if a.cache != nil {
		options = append(options, services.WithCache(a.cache))
	}

	if a.metrics != nil {
		options = append(options, services.WithMetrics(a.metrics))
	}

	if a.tracer != nil {
		options = append(options, services.WithTracer(a.tracer))
	}

	workflowService := services.NewWorkflow(a.persistence, options...)

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.metrics)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Lensflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
