package services

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"spooltrack/config"
	"spooltrack/internal/database"
	"spooltrack/internal/events"
	"spooltrack/internal/models"
	"spooltrack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTransfer(t *testing.T) (*TransferService, models.Filament) {
	t.Helper()

	clock := testClock()
	entityStore := testStore(t, clock)

	filament := addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)
	model, err := entityStore.CreateModel(models.PrintModel{
		Name: "Benchy",
		Requirements: []models.Requirement{
			{FilamentID: filament.ID, MaterialType: filament.MaterialType, Color: filament.Color},
		},
	})
	require.NoError(t, err)
	_, err = entityStore.CreatePrint(models.PrintRecord{
		ModelID:   model.ID,
		ModelName: model.Name,
		Date:      models.NewDate(2025, time.March, 1),
		FilamentUsages: []models.FilamentUsage{
			{FilamentID: filament.ID, MaterialType: filament.MaterialType, ActualWeight: 14.5},
		},
		QualityRating: models.QualityGood,
	})
	require.NoError(t, err)

	return NewTransferService(entityStore, clock), filament
}

func TestExport_CarriesProvenanceMetadata(t *testing.T) {
	transfer, _ := seededTransfer(t)

	document := transfer.Export()
	assert.Equal(t, models.EnvelopeVersion, document.Version)
	assert.Equal(t, models.ApplicationName, document.Application)
	assert.Equal(t, 2025, document.ExportDate.Year())
	assert.Equal(t, 1, document.Metadata.TotalFilaments)
	assert.Equal(t, 1, document.Metadata.TotalModels)
	assert.Equal(t, 1, document.Metadata.TotalPrints)
	assert.Equal(t, []string{"Prusament"}, document.Metadata.Brands)
	assert.Contains(t, document.Metadata.MaterialTypes, models.MaterialPLA)
}

func TestImport_ReplaceRoundTrips(t *testing.T) {
	source, _ := seededTransfer(t)
	exported, err := json.Marshal(source.Export())
	require.NoError(t, err)

	clock := testClock()
	destination := testStore(t, clock)
	transfer := NewTransferService(destination, clock)

	result, err := transfer.Import(exported, ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filaments)
	assert.Equal(t, 1, result.Models)
	assert.Equal(t, 1, result.Prints)

	// The round-tripped state matches the source, ids included.
	roundTripped, err := json.Marshal(transfer.Export().Data)
	require.NoError(t, err)
	sourceData, err := json.Marshal(source.Export().Data)
	require.NoError(t, err)
	assert.JSONEq(t, string(sourceData), string(roundTripped))
}

func TestImport_LegacyBareCollections(t *testing.T) {
	clock := testClock()
	transfer := NewTransferService(testStore(t, clock), clock)

	document := []byte(`{
		"filaments": [{"brand": "Hatchbox", "material": "PETG"}],
		"prints": [{"modelName": "Benchy", "date": "2024-01-05"}]
	}`)

	result, err := transfer.Import(document, ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filaments)
	assert.Equal(t, 0, result.Models)
	assert.Equal(t, 1, result.Prints)

	// Legacy records get the same defaulting as a legacy load.
	exported := transfer.Export()
	require.Len(t, exported.Data.Filaments, 1)
	filament := exported.Data.Filaments[0]
	assert.Equal(t, "PETG", filament.MaterialType)
	assert.Equal(t, models.DefaultColorHex, filament.ColorHex)
	assert.Equal(t, float64(1000), filament.Weight)
}

func TestImport_BrandlessLegacyRecordStaysWritable(t *testing.T) {
	clock := testClock()
	entityStore := testStore(t, clock)
	transfer := NewTransferService(entityStore, clock)

	result, err := transfer.Import([]byte(`{"filaments": [{"material": "PETG"}]}`), ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filaments)

	exported := transfer.Export()
	require.Len(t, exported.Data.Filaments, 1)
	assert.Equal(t, models.DefaultBrand, exported.Data.Filaments[0].Brand)

	// The defaulted record must not wedge saves of later, valid records.
	addFilament(t, entityStore, "Prusament", models.MaterialPLA, "Orange", 1000)
	assert.Len(t, entityStore.Filaments(), 2)
}

func TestImport_AddModeAppendsAndSkipsNameCollisions(t *testing.T) {
	transfer, seededFilament := seededTransfer(t)

	document := []byte(`{
		"data": {
			"filaments": [{"id": 1, "brand": "Overture", "materialType": "PLA", "colorHex": "#ff0000", "diameter": 1.75, "weight": 800}],
			"models": [
				{"id": 5, "name": "Benchy"},
				{"id": 6, "name": "Calibration Cube", "requirements": [{"filamentId": 1}]}
			]
		}
	}`)

	result, err := transfer.Import(document, ImportAdd)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filaments)
	assert.Equal(t, 1, result.Models, "duplicate model name is skipped")

	exported := transfer.Export()
	assert.Len(t, exported.Data.Filaments, 2)
	assert.Len(t, exported.Data.Models, 2)

	// The appended filament got a fresh id, distinct from the seeded one.
	appended := exported.Data.Filaments[1]
	assert.NotEqual(t, seededFilament.ID, appended.ID)

	cube := exported.Data.Models[1]
	require.Len(t, cube.Requirements, 1)
	assert.Equal(t, appended.ID, cube.Requirements[0].FilamentID)
}

func TestImport_PersistenceFailureStillReportsCounts(t *testing.T) {
	clock := testClock()
	cfg := config.Config{DataPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg)
	require.NoError(t, err)

	entityStore := store.New(db, events.New(), clock)
	require.NoError(t, entityStore.Load())
	transfer := NewTransferService(entityStore, clock)

	// Closing the database makes every later flush fail while the import
	// still takes effect in memory.
	require.NoError(t, db.Close())

	document := []byte(`{"filaments": [{"brand": "Hatchbox", "material": "PETG"}]}`)
	result, err := transfer.Import(document, ImportReplace)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, 1, result.Filaments)
	assert.Len(t, entityStore.Filaments(), 1)
}

func TestImport_RejectsBadDocuments(t *testing.T) {
	clock := testClock()
	transfer := NewTransferService(testStore(t, clock), clock)

	tests := []struct {
		name     string
		document string
		mode     ImportMode
	}{
		{"not JSON", "here be spools", ImportReplace},
		{"no recognized collections", `{"spools": []}`, ImportReplace},
		{"empty object", `{}`, ImportAdd},
		{"unknown mode", `{"filaments": []}`, ImportMode("merge")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := transfer.Import([]byte(tc.document), tc.mode)
			assert.ErrorIs(t, err, models.ErrImportFormat)
		})
	}
}
