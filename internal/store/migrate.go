package store

import (
	"encoding/json"
	. "spooltrack/internal/models"
	"spooltrack/internal/utils"
	"strings"
)

// rawEnvelope defers per-record parsing so one malformed record cannot
// fail the whole document.
type rawEnvelope struct {
	Version   string            `json:"version"`
	Filaments []json.RawMessage `json:"filaments"`
	Models    []json.RawMessage `json:"models"`
	Prints    []json.RawMessage `json:"prints"`
}

// Field-by-field migration. Every reader of old data goes through these:
// loading a pre-envelope blob and importing a legacy file apply identical
// defaulting, and neither ever rejects a record outright.

func migrateFilaments(records []json.RawMessage) []Filament {
	filaments := make([]Filament, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		filaments = append(filaments, MigrateFilament(raw))
	}
	return filaments
}

func migrateModels(records []json.RawMessage) []PrintModel {
	printModels := make([]PrintModel, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		printModels = append(printModels, MigrateModel(raw))
	}
	return printModels
}

func migratePrints(records []json.RawMessage, clock utils.Clock) []PrintRecord {
	prints := make([]PrintRecord, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		prints = append(prints, MigratePrint(raw, clock))
	}
	return prints
}

// MigrateFilament builds a filament from a raw record of any vintage.
// Missing or malformed fields are defaulted, never rejected: a legacy
// `material` carries over to materialType, an absent brand becomes
// Unknown, colorHex falls back to neutral gray, diameter to 1.75 and
// inStock to true. The result always passes Validate, so one old record
// can never wedge a later save.
func MigrateFilament(raw map[string]any) Filament {
	filament := Filament{
		ID:           intField(raw, "id"),
		Brand:        stringField(raw, "brand"),
		MaterialType: stringField(raw, "materialType"),
		Color:        stringField(raw, "color"),
		ColorHex:     stringField(raw, "colorHex"),
		Diameter:     numberField(raw, "diameter"),
		Weight:       numberField(raw, "weight"),
		Location:     stringField(raw, "location"),
		Notes:        stringField(raw, "notes"),
	}

	if filament.Brand == "" {
		filament.Brand = DefaultBrand
	}
	if filament.MaterialType == "" {
		filament.MaterialType = stringField(raw, "material")
	}
	if filament.MaterialType == "" {
		filament.MaterialType = MaterialPLA
	}
	if !ValidColorHex(filament.ColorHex) {
		filament.ColorHex = DefaultColorHex
	}
	if !ValidDiameter(filament.Diameter) {
		filament.Diameter = DefaultDiameter
	}
	if filament.Weight <= 0 {
		// Standard 1 kg spool when the acquisition weight was never recorded.
		filament.Weight = 1000
	}

	if inStock, ok := raw["inStock"].(bool); ok {
		filament.InStock = inStock
	} else {
		filament.InStock = true
	}
	if blocked, ok := raw["deletionBlocked"].(bool); ok {
		filament.DeletionBlocked = blocked
	}

	if price, ok := raw["purchasePrice"].(float64); ok && price >= 0 {
		filament.PurchasePrice = &price
	}

	tempMin, minOK := raw["tempMin"].(float64)
	tempMax, maxOK := raw["tempMax"].(float64)
	if minOK && maxOK {
		min, max := int(tempMin), int(tempMax)
		if min >= TempFloor && max <= TempCeiling && min < max {
			filament.TempMin = &min
			filament.TempMax = &max
		}
	}

	return filament
}

func MigrateModel(raw map[string]any) PrintModel {
	model := PrintModel{
		ID:   intField(raw, "id"),
		Name: stringField(raw, "name"),
		Link: stringField(raw, "link"),
	}

	requirements, _ := raw["requirements"].([]any)
	for _, entry := range requirements {
		rawReq, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		model.Requirements = append(model.Requirements, Requirement{
			FilamentID:   intField(rawReq, "filamentId"),
			MaterialType: stringField(rawReq, "materialType"),
			Color:        stringField(rawReq, "color"),
		})
	}

	return model
}

func MigratePrint(raw map[string]any, clock utils.Clock) PrintRecord {
	print := PrintRecord{
		ID:        intField(raw, "id"),
		ModelID:   intField(raw, "modelId"),
		ModelName: stringField(raw, "modelName"),
		Notes:     stringField(raw, "notes"),
	}

	if date, err := ParseDate(stringField(raw, "date")); err == nil {
		print.Date = date
	} else {
		now := clock.Now()
		print.Date = NewDate(now.Year(), now.Month(), now.Day())
	}

	rating := QualityRating(strings.ToLower(stringField(raw, "qualityRating")))
	if ValidQualityRating(rating) {
		print.QualityRating = rating
	}

	if duration, ok := raw["duration"].(float64); ok && duration >= 0 {
		print.Duration = &duration
	}

	usages, _ := raw["filamentUsages"].([]any)
	for _, entry := range usages {
		rawUsage, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		usage := FilamentUsage{
			FilamentID:   intField(rawUsage, "filamentId"),
			MaterialType: stringField(rawUsage, "materialType"),
			Color:        stringField(rawUsage, "color"),
			ActualWeight: numberField(rawUsage, "actualWeight"),
		}
		if usage.MaterialType == "" {
			usage.MaterialType = stringField(rawUsage, "material")
		}
		if usage.ActualWeight < 0 {
			usage.ActualWeight = 0
		}
		if unresolved, ok := rawUsage["unresolved"].(bool); ok {
			usage.Unresolved = unresolved
		}
		print.FilamentUsages = append(print.FilamentUsages, usage)
	}

	return print
}

func stringField(raw map[string]any, key string) string {
	value, _ := raw[key].(string)
	return strings.TrimSpace(value)
}

func numberField(raw map[string]any, key string) float64 {
	value, _ := raw[key].(float64)
	return value
}

func intField(raw map[string]any, key string) int {
	switch value := raw[key].(type) {
	case float64:
		return int(value)
	case string:
		// Some very old records carried ids as strings.
		var id int
		for _, r := range value {
			if r < '0' || r > '9' {
				return 0
			}
			id = id*10 + int(r-'0')
		}
		return id
	}
	return 0
}
