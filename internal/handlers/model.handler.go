package handlers

import (
	"errors"
	"spooltrack/internal/app"
	"spooltrack/internal/handlers/middleware"
	"spooltrack/internal/models"
	"spooltrack/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

var modelColumns = []services.Column{
	{Key: "name", Label: "Name", Sort: services.SortText},
	{Key: "requirements", Label: "Filaments", Sort: services.SortNumber},
}

type ModelHandler struct {
	Handler
	app  *app.App
	grid *services.Grid[models.PrintModel]
}

func NewModelHandler(app *app.App, router fiber.Router) *ModelHandler {
	log := logger.New("handlers").Function("model")

	grid := services.NewGrid(
		modelColumns,
		"name",
		app.Config.DefaultPageSize,
		func(row models.PrintModel, key string) any {
			switch key {
			case "name":
				return row.Name
			case "requirements":
				return len(row.Requirements)
			}
			return ""
		},
		func(row models.PrintModel) string {
			return row.SearchText()
		},
	)

	return &ModelHandler{
		app:  app,
		grid: grid,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ModelHandler) Register() {
	group := h.router.Group("/models")
	group.Get("/", h.list)
	group.Post("/", h.create)
	group.Put("/:id", h.update)
	group.Delete("/:id", h.remove)
	group.Get("/:id/usages", h.usages)
}

func (h *ModelHandler) list(c *fiber.Ctx) error {
	applyGridParams(h.grid, c)
	return c.JSON(h.grid.VisiblePage(h.app.Store.Models()))
}

type ModelRequest struct {
	Name         string               `json:"name"`
	Link         string               `json:"link"`
	Requirements []models.Requirement `json:"requirements"`
}

func (h *ModelHandler) validate(request ModelRequest) map[string]string {
	return validateFields(h.app.Validation, map[string]string{
		"model.name": request.Name,
		"model.link": request.Link,
	})
}

// denormalize fills each requirement's material/color from the referenced
// filament so the row survives a later deletion of that filament.
func (h *ModelHandler) denormalize(requirements []models.Requirement) []models.Requirement {
	out := append([]models.Requirement(nil), requirements...)
	for i := range out {
		if out[i].FilamentID <= 0 {
			continue
		}
		if filament, found := h.app.Store.FilamentByID(out[i].FilamentID); found {
			if out[i].MaterialType == "" {
				out[i].MaterialType = filament.MaterialType
			}
			if out[i].Color == "" {
				out[i].Color = filament.Color
			}
		}
	}
	return out
}

func (h *ModelHandler) create(c *fiber.Ctx) error {
	var request ModelRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	model, err := h.app.Store.CreateModel(models.PrintModel{
		Name:         request.Name,
		Link:         request.Link,
		Requirements: h.denormalize(request.Requirements),
	})
	if err != nil {
		return h.entityError(c, err, model)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"model": model})
}

func (h *ModelHandler) update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid model id"})
	}

	var request ModelRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	model, err := h.app.Store.UpdateModel(models.PrintModel{
		ID:           id,
		Name:         request.Name,
		Link:         request.Link,
		Requirements: h.denormalize(request.Requirements),
	})
	if err != nil {
		return h.entityError(c, err, model)
	}

	return c.JSON(fiber.Map{"model": model})
}

func (h *ModelHandler) remove(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid model id"})
	}

	if err := h.app.Store.DeleteModel(id); err != nil {
		return h.entityError(c, err, nil)
	}

	return c.JSON(fiber.Map{"deleted": true})
}

// usages previews the auto-populated filament-usage list for a print of
// this model.
func (h *ModelHandler) usages(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid model id"})
	}

	usages, err := h.app.AutoPopulate.UsagesForModel(id)
	if err != nil {
		return h.entityError(c, err, nil)
	}

	return c.JSON(fiber.Map{"usages": usages})
}

func (h *ModelHandler) entityError(c *fiber.Ctx, err error, entity any) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrPersistence):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"model":   entity,
			"warning": "Change was not persisted and may be lost on restart",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   err.Error(),
		"traceId": middleware.GetTraceID(c),
	})
}
