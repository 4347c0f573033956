// Package main provides the Workline API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/anilrana004/Workline/pkg/eventbus"
	"github.com/anilrana004/Workline/pkg/notification"
	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/anilrana004/Workline/pkg/services"
	"github.com/anilrana004/Workline/pkg/web"
	"github.com/anilrana004/Workline/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	engine      *workflow.Engine
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	dispatcher := notification.NewEventBusDispatcher(eventBus, logger)

	return &API{
		logger:      logger,
		persistence: store,
		eventBus:    eventBus,
		engine:      workflow.NewEngine(store, dispatcher, logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Engine exposes the workflow engine for the queue trigger callback.
func (a *API) Engine() *workflow.Engine {
	return a.engine
}

func (a *API) App() (*fiber.App, error) {
	workflowService, err := services.NewWorkflow(a.persistence, a.logger)
	if err != nil {
		return nil, err
	}

	handlers := web.NewAPIHandlers(a.engine, workflowService, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Workline API")
	})

	handlers.RegisterRoutes(app)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
