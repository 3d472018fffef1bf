package services

import (
	"testing"
	"time"

	"spooltrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPrint_WarnsOnOverdraw(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewInventoryService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 100)

	// Within stock: no warning.
	warnings := service.CheckPrint(models.PrintRecord{
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, ActualWeight: 100},
		},
	}, 0)
	assert.Empty(t, warnings)

	// One gram over: advisory warning with the exact figures.
	warnings = service.CheckPrint(models.PrintRecord{
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, ActualWeight: 101},
		},
	}, 0)
	require.Len(t, warnings, 1)
	assert.Equal(t, filament.ID, warnings[0].FilamentID)
	assert.Equal(t, "Prusament", warnings[0].Brand)
	assert.Equal(t, float64(100), warnings[0].Remaining)
	assert.Equal(t, float64(101), warnings[0].Requested)
}

func TestCheckPrint_AggregatesUsagesPerSpool(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewInventoryService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 100)

	// Two usages of the same spool count together.
	warnings := service.CheckPrint(models.PrintRecord{
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, ActualWeight: 60},
			{FilamentID: filament.ID, ActualWeight: 60},
		},
	}, 0)
	require.Len(t, warnings, 1)
	assert.Equal(t, float64(120), warnings[0].Requested)
}

func TestCheckPrint_ExcludesThePrintBeingEdited(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewInventoryService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 100)
	model, err := entityStore.CreateModel(models.PrintModel{Name: "Benchy"})
	require.NoError(t, err)

	print, err := entityStore.CreatePrint(models.PrintRecord{
		ModelID:   model.ID,
		ModelName: model.Name,
		Date:      models.NewDate(2025, time.March, 1),
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, MaterialType: filament.MaterialType, ActualWeight: 80},
		},
	})
	require.NoError(t, err)

	edited := print
	edited.FilamentUsages = []models.FilamentUsage{
		{FilamentID: filament.ID, MaterialType: filament.MaterialType, ActualWeight: 90},
	}

	// Against the full collection the edit would overdraw, but the usages
	// being replaced do not count against their own spool.
	assert.Empty(t, service.CheckPrint(edited, print.ID))
	assert.NotEmpty(t, service.CheckPrint(edited, 0))
}

func TestStats_AggregatesWithDecimalPrecision(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewInventoryService(entityStore)

	price := func(v float64) *float64 { return &v }

	first, err := entityStore.CreateFilament(models.Filament{
		Brand: "Prusament", MaterialType: models.MaterialPLA, Color: "Orange",
		ColorHex: "#112233", Diameter: 1.75, Weight: 1000, PurchasePrice: price(24.99),
	})
	require.NoError(t, err)
	_, err = entityStore.CreateFilament(models.Filament{
		Brand: "Hatchbox", MaterialType: models.MaterialPETG, Color: "Blue",
		ColorHex: "#112233", Diameter: 1.75, Weight: 500, PurchasePrice: price(19.99),
	})
	require.NoError(t, err)

	model, err := entityStore.CreateModel(models.PrintModel{Name: "Benchy"})
	require.NoError(t, err)
	_, err = entityStore.CreatePrint(models.PrintRecord{
		ModelID:   model.ID,
		ModelName: model.Name,
		Date:      models.NewDate(2025, time.March, 1),
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: first.ID, MaterialType: first.MaterialType, ActualWeight: 0.1},
		},
	})
	require.NoError(t, err)

	stats := service.Stats()
	assert.Equal(t, 2, stats.TotalFilaments)
	assert.Equal(t, 2, stats.InStock)
	assert.Equal(t, 1, stats.TotalModels)
	assert.Equal(t, 1, stats.TotalPrints)
	assert.Equal(t, "44.98", stats.TotalSpend)
	assert.Equal(t, "1499.9", stats.RemainingGrams)

	require.Len(t, stats.ByMaterial, 2)
	assert.Equal(t, "PETG", stats.ByMaterial[0].MaterialType)
	assert.Equal(t, "500.0", stats.ByMaterial[0].RemainingGrams)
	assert.Equal(t, "PLA", stats.ByMaterial[1].MaterialType)
	assert.Equal(t, "999.9", stats.ByMaterial[1].RemainingGrams)
}
