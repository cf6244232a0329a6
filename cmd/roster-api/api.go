// Package main provides the reference employee backend.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/dukex/roster/pkg/services"
	"github.com/dukex/roster/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	token       string
	service     *services.Employee
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	token string,
) *API {
	var publisher eventbus.EventPublisher
	if eventBus != nil {
		publisher = eventBus
	}

	return &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		token:       token,
		service:     services.NewEmployee(persistence, publisher, logger),
	}
}

// Service exposes the employee service, e.g. to seed catalogs at startup.
func (a *API) Service() *services.Employee {
	return a.service
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.service)

	app := fiber.New(fiber.Config{
		Immutable: true,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Roster API")
	})

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("", web.RequireToken(a.token))
	handlers.Register(api)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
