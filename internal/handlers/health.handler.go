package handlers

import (
	"spooltrack/internal/app"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, app *app.App) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":           "ok",
			"version":          app.Config.GeneralVersion,
			"service":          "spooltrack_api",
			"websocketClients": app.Websocket.ClientCount(),
		})
	})
}
