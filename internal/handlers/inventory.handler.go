package handlers

import (
	"spooltrack/internal/app"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Handler
	app *app.App
}

func NewInventoryHandler(app *app.App, router fiber.Router) *InventoryHandler {
	return &InventoryHandler{
		app: app,
		Handler: Handler{
			log:        logger.New("handlers").Function("inventory"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *InventoryHandler) Register() {
	h.router.Get("/stats", h.stats)
	h.router.Get("/materials", h.materials)
	h.router.Post("/validate", h.validateField)
}

func (h *InventoryHandler) stats(c *fiber.Ctx) error {
	return c.JSON(h.app.Inventory.Stats())
}

func (h *InventoryHandler) materials(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"materialTypes": h.app.Store.MaterialTypes()})
}

type validateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *InventoryHandler) validateField(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("inventory_handler").Function("validateField")

	var request validateRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn("invalid validate request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if request.Field == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Field is required"})
	}

	return c.JSON(h.app.Validation.Validate(request.Field, request.Value))
}
