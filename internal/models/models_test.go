package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_MarshalsAsCalendarDay(t *testing.T) {
	date := NewDate(2025, time.March, 9)

	data, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-09"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-31T18:30:00Z"`), &parsed))
	assert.Equal(t, NewDate(2024, time.December, 31), parsed)

	require.NoError(t, json.Unmarshal([]byte(`""`), &parsed))
	assert.True(t, parsed.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &parsed))
}

func TestDate_AfterComparesByDay(t *testing.T) {
	date := NewDate(2025, time.March, 15)

	// Same calendar day, later wall-clock time: not after.
	assert.False(t, date.After(time.Date(2025, time.March, 15, 23, 59, 0, 0, time.UTC)))
	assert.False(t, date.After(time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)))
	assert.True(t, date.After(time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)))
}

func TestFilament_Validate(t *testing.T) {
	base := func() Filament {
		return Filament{
			ID:           1,
			Brand:        "Prusament",
			MaterialType: MaterialPLA,
			ColorHex:     "#1a1a2e",
			Diameter:     1.75,
			Weight:       1000,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Filament)
		ok     bool
	}{
		{"valid", func(*Filament) {}, true},
		{"missing brand", func(f *Filament) { f.Brand = "  " }, false},
		{"bad colorHex", func(f *Filament) { f.ColorHex = "#12" }, false},
		{"unsold diameter", func(f *Filament) { f.Diameter = 3.0 }, false},
		{"zero weight", func(f *Filament) { f.Weight = 0 }, false},
		{"negative price", func(f *Filament) { p := -1.0; f.PurchasePrice = &p }, false},
		{"half-open temp range", func(f *Filament) { min := 200; f.TempMin = &min }, false},
		{"inverted temp range", func(f *Filament) {
			min, max := 250, 200
			f.TempMin, f.TempMax = &min, &max
		}, false},
		{"valid temp range", func(f *Filament) {
			min, max := 190, 220
			f.TempMin, f.TempMax = &min, &max
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filament := base()
			tc.mutate(&filament)
			err := filament.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPrintRecord_Validate(t *testing.T) {
	record := PrintRecord{
		ID:        1,
		ModelName: "Benchy",
		Date:      NewDate(2025, time.March, 1),
	}
	assert.NoError(t, record.Validate())

	record.Date = Date{}
	assert.Error(t, record.Validate())

	record.Date = NewDate(2025, time.March, 1)
	record.QualityRating = "amazing"
	assert.Error(t, record.Validate())

	record.QualityRating = QualityGood
	record.FilamentUsages = []FilamentUsage{{ActualWeight: -1}}
	assert.Error(t, record.Validate())
}
