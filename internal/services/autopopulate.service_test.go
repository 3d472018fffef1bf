package services

import (
	"testing"

	"spooltrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsagesForModel_OneUsagePerRequirement(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewAutoPopulateService(entityStore)

	red := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Red", 1000)
	blue := addFilament(t, entityStore, "Hatchbox", models.MaterialPETG, "Blue", 1000)

	model, err := entityStore.CreateModel(models.PrintModel{
		Name: "Two Tone",
		Requirements: []models.Requirement{
			{FilamentID: red.ID, MaterialType: red.MaterialType, Color: red.Color},
			{FilamentID: blue.ID, MaterialType: blue.MaterialType, Color: blue.Color},
		},
	})
	require.NoError(t, err)

	usages, err := service.UsagesForModel(model.ID)
	require.NoError(t, err)
	require.Len(t, usages, 2)

	assert.Equal(t, red.ID, usages[0].FilamentID)
	assert.Equal(t, blue.ID, usages[1].FilamentID)
	for _, usage := range usages {
		assert.False(t, usage.Unresolved)
		// The weight is always left for the user to fill in.
		assert.Equal(t, float64(0), usage.ActualWeight)
	}
}

func TestUsagesForModel_FallsBackToMaterialAndColor(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewAutoPopulateService(entityStore)

	original := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Red", 1000)
	model, err := entityStore.CreateModel(models.PrintModel{
		Name: "Vase",
		Requirements: []models.Requirement{
			{FilamentID: original.ID, MaterialType: original.MaterialType, Color: original.Color},
		},
	})
	require.NoError(t, err)

	// An equivalent spool from another brand, then the original retires.
	replacement := addFilament(t, entityStore, "Overture", "pla", "red", 750)
	_, err = entityStore.RetireFilament(original.ID)
	require.NoError(t, err)

	// The id match skips the retired spool; the requirement resolves to
	// the in-stock equivalent, case-insensitively.

	usages, err := service.UsagesForModel(model.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, replacement.ID, usages[0].FilamentID)
	assert.False(t, usages[0].Unresolved)
}

func TestUsagesForModel_UnresolvedKeepsRequirementStrings(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewAutoPopulateService(entityStore)

	model, err := entityStore.CreateModel(models.PrintModel{
		Name: "Lithophane",
		Requirements: []models.Requirement{
			{FilamentID: 99, MaterialType: models.MaterialTPU, Color: "Clear"},
		},
	})
	require.NoError(t, err)

	usages, err := service.UsagesForModel(model.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)

	assert.True(t, usages[0].Unresolved)
	assert.Equal(t, 99, usages[0].FilamentID)
	assert.Equal(t, models.MaterialTPU, usages[0].MaterialType)
	assert.Equal(t, "Clear", usages[0].Color)
}

func TestUsagesForModel_OutOfStockSpoolIsSkipped(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewAutoPopulateService(entityStore)

	spool := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Red", 1000)
	model, err := entityStore.CreateModel(models.PrintModel{
		Name: "Vase",
		Requirements: []models.Requirement{
			{FilamentID: spool.ID, MaterialType: spool.MaterialType, Color: spool.Color},
		},
	})
	require.NoError(t, err)

	_, err = entityStore.RetireFilament(spool.ID)
	require.NoError(t, err)

	// No in-stock spool of that material and color is left.
	usages, err := service.UsagesForModel(model.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.True(t, usages[0].Unresolved)
}

func TestUsagesForModel_UnknownModel(t *testing.T) {
	entityStore := testStore(t, testClock())
	service := NewAutoPopulateService(entityStore)

	_, err := service.UsagesForModel(12)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
