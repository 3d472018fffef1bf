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

// FilamentRow is what the filament grid renders: the record plus its
// derived remaining weight.
type FilamentRow struct {
	models.Filament
	RemainingWeight float64 `json:"remainingWeight"`
}

var filamentColumns = []services.Column{
	{Key: "brand", Label: "Brand", Sort: services.SortText},
	{Key: "materialType", Label: "Material", Sort: services.SortText},
	{Key: "color", Label: "Color", Sort: services.SortText},
	{Key: "diameter", Label: "Diameter", Sort: services.SortNumber},
	{Key: "weight", Label: "Weight (g)", Sort: services.SortNumber},
	{Key: "remainingWeight", Label: "Remaining (g)", Sort: services.SortNumber},
	{Key: "purchasePrice", Label: "Price", Sort: services.SortNumber},
	{Key: "location", Label: "Location", Sort: services.SortText},
}

type FilamentHandler struct {
	Handler
	app  *app.App
	grid *services.Grid[FilamentRow]
}

func NewFilamentHandler(app *app.App, router fiber.Router) *FilamentHandler {
	log := logger.New("handlers").Function("filament")

	grid := services.NewGrid(
		filamentColumns,
		"brand",
		app.Config.DefaultPageSize,
		func(row FilamentRow, key string) any {
			switch key {
			case "brand":
				return row.Brand
			case "materialType":
				return row.MaterialType
			case "color":
				return row.Color
			case "diameter":
				return row.Diameter
			case "weight":
				return row.Weight
			case "remainingWeight":
				return row.RemainingWeight
			case "purchasePrice":
				return row.PurchasePrice
			case "location":
				return row.Location
			}
			return ""
		},
		func(row FilamentRow) string {
			return row.SearchText()
		},
	)

	return &FilamentHandler{
		app:  app,
		grid: grid,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FilamentHandler) Register() {
	filaments := h.router.Group("/filaments")
	filaments.Get("/", h.list)
	filaments.Post("/", h.create)
	filaments.Put("/:id", h.update)
	filaments.Delete("/:id", h.remove)
	filaments.Post("/:id/retire", h.retire)
}

func (h *FilamentHandler) rows() []FilamentRow {
	filaments := h.app.Store.Filaments()
	rows := make([]FilamentRow, 0, len(filaments))
	for _, filament := range filaments {
		rows = append(rows, FilamentRow{
			Filament:        filament,
			RemainingWeight: h.app.Store.RemainingWeight(filament.ID),
		})
	}
	return rows
}

func (h *FilamentHandler) list(c *fiber.Ctx) error {
	applyGridParams(h.grid, c)
	return c.JSON(h.grid.VisiblePage(h.rows()))
}

// FilamentRequest is the add/edit form payload. materialTypeCustom holds
// the free-form value when materialType is the "Other" escape hatch.
type FilamentRequest struct {
	Brand              string   `json:"brand"`
	MaterialType       string   `json:"materialType"`
	MaterialTypeCustom string   `json:"materialTypeCustom"`
	Color              string   `json:"color"`
	ColorHex           string   `json:"colorHex"`
	Diameter           float64  `json:"diameter"`
	Weight             float64  `json:"weight"`
	PurchasePrice      *float64 `json:"purchasePrice"`
	Location           string   `json:"location"`
	TempMin            *int     `json:"tempMin"`
	TempMax            *int     `json:"tempMax"`
	Notes              string   `json:"notes"`
}

func (h *FilamentHandler) validate(request FilamentRequest) map[string]string {
	failures := validateFields(h.app.Validation, map[string]string{
		"filament.brand":         request.Brand,
		"filament.materialType":  request.MaterialType,
		"filament.color":         request.Color,
		"filament.colorHex":      request.ColorHex,
		"filament.diameter":      floatRaw(request.Diameter),
		"filament.weight":        floatRaw(request.Weight),
		"filament.purchasePrice": floatPtrRaw(request.PurchasePrice),
		"filament.location":      request.Location,
		"filament.tempMin":       intPtrRaw(request.TempMin),
		"filament.tempMax":       intPtrRaw(request.TempMax),
		"filament.notes":         request.Notes,
	})

	if request.MaterialType == models.MaterialOther && request.MaterialTypeCustom == "" {
		failures["filament.materialTypeCustom"] = "Material type is required"
	}
	if request.TempMin != nil && request.TempMax != nil && *request.TempMin >= *request.TempMax {
		failures["filament.tempMax"] = "Maximum temperature must be above the minimum"
	}
	return failures
}

func (request FilamentRequest) toFilament() models.Filament {
	materialType := request.MaterialType
	if materialType == models.MaterialOther && request.MaterialTypeCustom != "" {
		materialType = request.MaterialTypeCustom
	}
	return models.Filament{
		Brand:         request.Brand,
		MaterialType:  materialType,
		Color:         request.Color,
		ColorHex:      request.ColorHex,
		Diameter:      request.Diameter,
		Weight:        request.Weight,
		PurchasePrice: request.PurchasePrice,
		Location:      request.Location,
		TempMin:       request.TempMin,
		TempMax:       request.TempMax,
		Notes:         request.Notes,
	}
}

func (h *FilamentHandler) create(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("filament_handler").Function("create")

	var request FilamentRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn("invalid request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	filament, err := h.app.Store.CreateFilament(request.toFilament())
	if err != nil {
		return h.entityError(c, err, filament)
	}

	response := fiber.Map{"filament": filament}
	if duplicates := h.app.Store.Duplicates(filament); len(duplicates) > 0 {
		// Advisory only: equal-looking spools are still distinct units.
		response["duplicates"] = duplicates
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *FilamentHandler) update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid filament id"})
	}

	existing, found := h.app.Store.FilamentByID(id)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Filament not found"})
	}

	var request FilamentRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if failures := h.validate(request); len(failures) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": failures})
	}

	filament := request.toFilament()
	filament.ID = existing.ID
	filament.InStock = existing.InStock

	updated, err := h.app.Store.UpdateFilament(filament)
	if err != nil {
		return h.entityError(c, err, updated)
	}

	return c.JSON(fiber.Map{"filament": updated})
}

// remove applies the integrity guard. The confirm query parameter stands
// in for the confirmation dialog a UI would show.
func (h *FilamentHandler) remove(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid filament id"})
	}

	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("filament_handler").Function("remove")

	confirmed := c.QueryBool("confirm")
	outcome, err := h.app.Integrity.DeleteFilament(id, services.ConfirmerFunc(func(string) bool {
		return confirmed
	}))

	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Filament not found"})
	case errors.Is(err, models.ErrReferentialIntegrity):
		log.Warn("delete refused for referenced filament", "id", id)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "Filament is referenced and cannot be deleted",
			"references": outcome.References,
			"remedy":     "retire",
		})
	case errors.Is(err, models.ErrPersistence):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"outcome": outcome,
			"warning": "Change was not persisted and may be lost on restart",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"traceId": middleware.GetTraceID(c),
		})
	}

	return c.JSON(fiber.Map{"outcome": outcome})
}

func (h *FilamentHandler) retire(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid filament id"})
	}

	filament, err := h.app.Store.RetireFilament(id)
	if err != nil {
		return h.entityError(c, err, filament)
	}

	return c.JSON(fiber.Map{"filament": filament})
}

// entityError maps store errors onto responses. A persistence failure is
// not fatal: the mutation took effect in memory, the client is warned.
func (h *FilamentHandler) entityError(c *fiber.Ctx, err error, entity any) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrPersistence):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"filament": entity,
			"warning":  "Change was not persisted and may be lost on restart",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   err.Error(),
		"traceId": middleware.GetTraceID(c),
	})
}
