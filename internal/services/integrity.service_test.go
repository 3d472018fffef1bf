package services

import (
	"testing"
	"time"

	"spooltrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmAlways(string) bool { return true }
func confirmNever(string) bool  { return false }

func TestDeleteFilament_UnreferencedHardDeletes(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)

	outcome, err := guard.DeleteFilament(filament.ID, ConfirmerFunc(confirmAlways))
	require.NoError(t, err)
	assert.True(t, outcome.Deleted)
	assert.False(t, outcome.Retired)

	_, found := entityStore.FilamentByID(filament.ID)
	assert.False(t, found)
}

func TestDeleteFilament_DeclinedConfirmationDoesNothing(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)

	outcome, err := guard.DeleteFilament(filament.ID, ConfirmerFunc(confirmNever))
	require.NoError(t, err)
	assert.False(t, outcome.Deleted)
	assert.False(t, outcome.Retired)

	_, found := entityStore.FilamentByID(filament.ID)
	assert.True(t, found)
}

func TestDeleteFilament_ReferencedByModelIsBlocked(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)
	_, err := entityStore.CreateModel(models.PrintModel{
		Name: "Benchy",
		Requirements: []models.Requirement{
			{FilamentID: filament.ID, MaterialType: filament.MaterialType, Color: filament.Color},
		},
	})
	require.NoError(t, err)

	// Declining the retirement offer leaves the spool untouched and the
	// refusal is reported as a referential integrity error.
	outcome, err := guard.DeleteFilament(filament.ID, ConfirmerFunc(confirmNever))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrReferentialIntegrity)
	assert.False(t, outcome.Deleted)
	assert.Len(t, outcome.References.Models, 1)

	current, found := entityStore.FilamentByID(filament.ID)
	require.True(t, found)
	assert.True(t, current.InStock)

	// Accepting the offer soft-retires instead of deleting.
	outcome, err = guard.DeleteFilament(filament.ID, ConfirmerFunc(confirmAlways))
	require.NoError(t, err)
	assert.False(t, outcome.Deleted)
	assert.True(t, outcome.Retired)

	current, found = entityStore.FilamentByID(filament.ID)
	require.True(t, found)
	assert.False(t, current.InStock)
	assert.True(t, current.DeletionBlocked)
}

func TestDeleteFilament_ReferencedByPrintIsBlocked(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)
	model, err := entityStore.CreateModel(models.PrintModel{Name: "Benchy"})
	require.NoError(t, err)
	_, err = entityStore.CreatePrint(models.PrintRecord{
		ModelID:   model.ID,
		ModelName: model.Name,
		Date:      models.NewDate(2025, time.March, 1),
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, MaterialType: filament.MaterialType, ActualWeight: 12},
		},
	})
	require.NoError(t, err)

	_, err = guard.DeleteFilament(filament.ID, ConfirmerFunc(confirmNever))
	assert.ErrorIs(t, err, models.ErrReferentialIntegrity)
}

func TestFindReferences_LegacyUsagesMatchByStrings(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)
	model, err := entityStore.CreateModel(models.PrintModel{Name: "Benchy"})
	require.NoError(t, err)

	// A usage written before filament ids existed carries only strings.
	_, err = entityStore.CreatePrint(models.PrintRecord{
		ModelID:   model.ID,
		ModelName: model.Name,
		Date:      models.NewDate(2025, time.February, 1),
		FilamentUsages: []models.FilamentUsage{
			{MaterialType: "pla", Color: "ORANGE", ActualWeight: 20},
		},
	})
	require.NoError(t, err)

	references := guard.FindReferences(filament.ID)
	assert.Len(t, references.Prints, 1)
	assert.Empty(t, references.Models)

	// The string match applies to every spool of that material and color,
	// but never to one whose strings differ.
	other := addFilament(t, entityStore, "eSun", models.MaterialPETG, "Blue", 500)
	references = guard.FindReferences(other.ID)
	assert.Empty(t, references.Prints)
}

func TestDeleteFilament_NotFound(t *testing.T) {
	entityStore := testStore(t, testClock())
	guard := NewIntegrityService(entityStore)

	_, err := guard.DeleteFilament(42, ConfirmerFunc(confirmAlways))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
