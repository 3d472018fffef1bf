package handlers

import (
	"spooltrack/internal/services"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// applyGridParams maps query parameters onto the grid's view state. The
// order matters: filter and sort reset to page 1, so an explicit page
// parameter is applied last.
func applyGridParams[T any](grid *services.Grid[T], c *fiber.Ctx) {
	args := c.Request().URI().QueryArgs()

	if args.Has("q") {
		grid.SetFilter(c.Query("q"))
	}
	if sort := c.Query("sort"); sort != "" {
		grid.SetSort(sort)
	}
	if dir := c.Query("dir"); dir != "" {
		grid.SetDirection(services.SortDirection(dir))
	}
	if size := c.QueryInt("pageSize"); size > 0 {
		grid.SetPageSize(size)
	}
	if page := c.QueryInt("page"); page > 0 {
		grid.SetPage(page)
	}
}

// Raw-value formatting for the field validator, which consumes form
// values as strings.

func floatRaw(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func floatPtrRaw(value *float64) string {
	if value == nil {
		return ""
	}
	return floatRaw(*value)
}

func intPtrRaw(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

// validateFields runs every pair through the validator and collects the
// failures keyed by field name.
func validateFields(validation *services.ValidationService, fields map[string]string) map[string]string {
	failures := make(map[string]string)
	for field, raw := range fields {
		if result := validation.Validate(field, raw); !result.Valid {
			failures[field] = result.Message
		}
	}
	return failures
}
