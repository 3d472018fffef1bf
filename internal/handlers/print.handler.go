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

var printColumns = []services.Column{
	{Key: "date", Label: "Date", Sort: services.SortNumber},
	{Key: "model", Label: "Model", Sort: services.SortText},
	{Key: "quality", Label: "Quality", Sort: services.SortText},
	{Key: "duration", Label: "Hours", Sort: services.SortNumber},
}

type PrintHandler struct {
	Handler
	app  *app.App
	grid *services.Grid[models.PrintRecord]
}

func NewPrintHandler(app *app.App, router fiber.Router) *PrintHandler {
	log := logger.New("handlers").Function("print")

	grid := services.NewGrid(
		printColumns,
		"date",
		app.Config.DefaultPageSize,
		func(row models.PrintRecord, key string) any {
			switch key {
			case "date":
				return float64(row.Date.Unix())
			case "model":
				return row.ModelName
			case "quality":
				return string(row.QualityRating)
			case "duration":
				return row.Duration
			}
			return ""
		},
		func(row models.PrintRecord) string {
			return row.SearchText()
		},
	)

	return &PrintHandler{
		app:  app,
		grid: grid,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PrintHandler) Register() {
	group := h.router.Group("/prints")
	group.Get("/", h.list)
	group.Post("/", h.create)
	group.Put("/:id", h.update)
	group.Delete("/:id", h.remove)
}

func (h *PrintHandler) list(c *fiber.Ctx) error {
	applyGridParams(h.grid, c)
	return c.JSON(h.grid.VisiblePage(h.app.Store.Prints()))
}

type PrintRequest struct {
	ModelID        int                    `json:"modelId"`
	Date           string                 `json:"date"`
	FilamentUsages []models.FilamentUsage `json:"filamentUsages"`
	QualityRating  string                 `json:"qualityRating"`
	Duration       *float64               `json:"duration"`
	Notes          string                 `json:"notes"`
}

func (h *PrintHandler) validate(request PrintRequest) map[string]string {
	failures := validateFields(h.app.Validation, map[string]string{
		"print.date":          request.Date,
		"print.qualityRating": request.QualityRating,
		"print.duration":      floatPtrRaw(request.Duration),
		"print.notes":         request.Notes,
	})
	for _, usage := range request.FilamentUsages {
		if result := h.app.Validation.Validate("print.actualWeight", floatRaw(usage.ActualWeight)); !result.Valid {
			failures["print.filamentUsages"] = result.Message
			break
		}
	}
	if request.ModelID <= 0 {
		failures["print.modelId"] = "Model is required"
	}
	return failures
}

func (h *PrintHandler) toRecord(request PrintRequest) (models.PrintRecord, error) {
	date, err := models.ParseDate(request.Date)
	if err != nil {
		return models.PrintRecord{}, err
	}

	record := models.PrintRecord{
		ModelID:        request.ModelID,
		Date:           date,
		FilamentUsages: request.FilamentUsages,
		QualityRating:  models.QualityRating(request.QualityRating),
		Duration:       request.Duration,
		Notes:          request.Notes,
	}
	if model, found := h.app.Store.ModelByID(request.ModelID); found {
		record.ModelName = model.Name
	}
	return record, nil
}

func (h *PrintHandler) create(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("print_handler").Function("create")

	var request PrintRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn("invalid request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	record, err := h.toRecord(request)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Overdrawing a spool is a warning the user can override with force.
	if !c.QueryBool("force") {
		if warnings := h.app.Inventory.CheckPrint(record, 0); len(warnings) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"warnings": warnings,
				"override": "retry with ?force=true to record anyway",
			})
		}
	}

	created, err := h.app.Store.CreatePrint(record)
	if err != nil {
		return h.entityError(c, err, created)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"print": created})
}

func (h *PrintHandler) update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid print id"})
	}

	var request PrintRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	record, err := h.toRecord(request)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	record.ID = id

	if !c.QueryBool("force") {
		if warnings := h.app.Inventory.CheckPrint(record, id); len(warnings) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"warnings": warnings,
				"override": "retry with ?force=true to record anyway",
			})
		}
	}

	updated, err := h.app.Store.UpdatePrint(record)
	if err != nil {
		return h.entityError(c, err, updated)
	}

	return c.JSON(fiber.Map{"print": updated})
}

func (h *PrintHandler) remove(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid print id"})
	}

	if err := h.app.Store.DeletePrint(id); err != nil {
		return h.entityError(c, err, nil)
	}

	return c.JSON(fiber.Map{"deleted": true})
}

func (h *PrintHandler) entityError(c *fiber.Ctx, err error, entity any) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrPersistence):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"print":   entity,
			"warning": "Change was not persisted and may be lost on restart",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   err.Error(),
		"traceId": middleware.GetTraceID(c),
	})
}
