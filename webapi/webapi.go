// Package webapi exposes the scheduler's operational HTTP surface: health,
// job run-state, and manual triggers. There is no user-facing API here; the
// scheduler is a background subsystem and its only interactive consumers
// are operators.
package webapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pennyflow/pennyflow/pkg/app"
)

// SetupApp builds the fiber app over the composed application.
func SetupApp(a *app.App, logger *slog.Logger) *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:               "pennyflow-scheduler",
		DisableStartupMessage: true,
	})

	f.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	f.Get("/jobs", func(c *fiber.Ctx) error {
		return c.JSON(a.Scheduler.Status())
	})

	f.Post("/jobs/:name/run", func(c *fiber.Ctx) error {
		name := c.Params("name")
		if err := a.Scheduler.Trigger(c.Context(), name); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("job triggered manually", "job", name)
		return c.JSON(fiber.Map{"triggered": name})
	})

	return f
}
