package handlers

import (
	"errors"
	"fmt"
	"spooltrack/internal/app"
	"spooltrack/internal/handlers/middleware"
	"spooltrack/internal/models"
	"spooltrack/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	Handler
	app *app.App
}

func NewTransferHandler(app *app.App, router fiber.Router) *TransferHandler {
	return &TransferHandler{
		app: app,
		Handler: Handler{
			log:        logger.New("handlers").Function("transfer"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TransferHandler) Register() {
	h.router.Get("/export", h.export)
	h.router.Post("/import", h.importData)
}

func (h *TransferHandler) export(c *fiber.Ctx) error {
	document := h.app.Transfer.Export()

	filename := fmt.Sprintf("spooltrack-export-%s.json", document.ExportDate.Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.JSON(document)
}

func (h *TransferHandler) importData(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("transfer_handler").Function("importData")

	mode := services.ImportMode(c.Query("mode", string(services.ImportReplace)))

	result, err := h.app.Transfer.Import(c.Body(), mode)
	switch {
	case errors.Is(err, models.ErrImportFormat):
		log.Warn("import document rejected", "reason", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrPersistence):
		log.Warn("import applied but not persisted")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"result":  result,
			"warning": "Import applied but not persisted; it may be lost on restart",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"traceId": middleware.GetTraceID(c),
		})
	}

	return c.JSON(fiber.Map{"result": result})
}
