// Package main serves onboarding wizard sessions over HTTP.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/roster/pkg/wizardweb"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type Host struct {
	logger  *slog.Logger
	manager *wizardweb.Manager
	metrics *wizardweb.Metrics
}

func NewHost(logger *slog.Logger, manager *wizardweb.Manager, metrics *wizardweb.Metrics) *Host {
	return &Host{
		logger:  logger,
		manager: manager,
		metrics: metrics,
	}
}

func (h *Host) App() *fiber.App {
	handlers := wizardweb.NewHandlers(h.manager, h.metrics)

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
		return c.SendString("Roster Wizard")
	})

	handlers.Register(app)

	return app
}

func (h *Host) Start(port int) error {
	app := h.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
