package services

import (
	"path/filepath"
	"testing"
	"time"

	"spooltrack/config"
	"spooltrack/internal/database"
	"spooltrack/internal/events"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"spooltrack/internal/utils"

	"github.com/stretchr/testify/require"
)

// Shared fixtures for the service tests. Every test gets its own store
// backed by a throwaway database file.

func testClock() *utils.FakeClock {
	return utils.NewFakeClock(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC))
}

func testStore(t *testing.T, clock utils.Clock) *store.EntityStore {
	t.Helper()

	cfg := config.Config{DataPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	entityStore := store.New(db, events.New(), clock)
	require.NoError(t, entityStore.Load())
	return entityStore
}

func addFilament(t *testing.T, s *store.EntityStore, brand, material, color string, weight float64) models.Filament {
	t.Helper()

	filament, err := s.CreateFilament(models.Filament{
		Brand:        brand,
		MaterialType: material,
		Color:        color,
		ColorHex:     "#112233",
		Diameter:     1.75,
		Weight:       weight,
	})
	require.NoError(t, err)
	return filament
}
