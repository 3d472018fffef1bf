package store

import (
	"testing"
	"time"

	. "spooltrack/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMigrateFilament_Defaults(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want func(t *testing.T, f Filament)
	}{
		{
			name: "legacy material field carries over",
			raw:  map[string]any{"brand": "Hatchbox", "material": "PETG"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, "PETG", f.MaterialType)
			},
		},
		{
			name: "missing brand defaults to Unknown",
			raw:  map[string]any{"material": "PETG"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, DefaultBrand, f.Brand)
				assert.Equal(t, "PETG", f.MaterialType)
			},
		},
		{
			name: "migrated record always passes validation",
			raw:  map[string]any{},
			want: func(t *testing.T, f Filament) {
				f.ID = 1
				assert.NoError(t, f.Validate())
			},
		},
		{
			name: "missing material defaults to PLA",
			raw:  map[string]any{"brand": "Hatchbox"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, MaterialPLA, f.MaterialType)
			},
		},
		{
			name: "materialType beats legacy material",
			raw:  map[string]any{"materialType": "TPU", "material": "PETG"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, "TPU", f.MaterialType)
			},
		},
		{
			name: "invalid colorHex falls back to neutral gray",
			raw:  map[string]any{"colorHex": "blue"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, DefaultColorHex, f.ColorHex)
			},
		},
		{
			name: "unsold diameter falls back to 1.75",
			raw:  map[string]any{"diameter": 3.0},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, DefaultDiameter, f.Diameter)
			},
		},
		{
			name: "missing weight defaults to a 1 kg spool",
			raw:  map[string]any{},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, float64(1000), f.Weight)
			},
		},
		{
			name: "missing inStock defaults to true",
			raw:  map[string]any{},
			want: func(t *testing.T, f Filament) {
				assert.True(t, f.InStock)
			},
		},
		{
			name: "explicit inStock false survives",
			raw:  map[string]any{"inStock": false},
			want: func(t *testing.T, f Filament) {
				assert.False(t, f.InStock)
			},
		},
		{
			name: "half-open temperature range is dropped",
			raw:  map[string]any{"tempMin": float64(200)},
			want: func(t *testing.T, f Filament) {
				assert.Nil(t, f.TempMin)
				assert.Nil(t, f.TempMax)
			},
		},
		{
			name: "inverted temperature range is dropped",
			raw:  map[string]any{"tempMin": float64(250), "tempMax": float64(200)},
			want: func(t *testing.T, f Filament) {
				assert.Nil(t, f.TempMin)
				assert.Nil(t, f.TempMax)
			},
		},
		{
			name: "valid temperature range survives",
			raw:  map[string]any{"tempMin": float64(190), "tempMax": float64(220)},
			want: func(t *testing.T, f Filament) {
				if assert.NotNil(t, f.TempMin) && assert.NotNil(t, f.TempMax) {
					assert.Equal(t, 190, *f.TempMin)
					assert.Equal(t, 220, *f.TempMax)
				}
			},
		},
		{
			name: "string id parses",
			raw:  map[string]any{"id": "42"},
			want: func(t *testing.T, f Filament) {
				assert.Equal(t, 42, f.ID)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.want(t, MigrateFilament(tc.raw))
		})
	}
}

func TestMigratePrint_Defaults(t *testing.T) {
	clock := testClock()

	t.Run("unparseable date becomes today", func(t *testing.T) {
		print := MigratePrint(map[string]any{"modelName": "Benchy", "date": "soon"}, clock)
		assert.Equal(t, NewDate(2025, time.March, 15), print.Date)
	})

	t.Run("full timestamp truncates to the day", func(t *testing.T) {
		print := MigratePrint(map[string]any{"date": "2024-06-01T15:04:05Z"}, clock)
		assert.Equal(t, NewDate(2024, time.June, 1), print.Date)
	})

	t.Run("quality rating is case folded and validated", func(t *testing.T) {
		print := MigratePrint(map[string]any{"qualityRating": "Excellent"}, clock)
		assert.Equal(t, QualityExcellent, print.QualityRating)

		print = MigratePrint(map[string]any{"qualityRating": "amazing"}, clock)
		assert.Empty(t, print.QualityRating)
	})

	t.Run("legacy usage material field carries over", func(t *testing.T) {
		print := MigratePrint(map[string]any{
			"filamentUsages": []any{
				map[string]any{"material": "ABS", "actualWeight": float64(-3)},
			},
		}, clock)
		if assert.Len(t, print.FilamentUsages, 1) {
			assert.Equal(t, "ABS", print.FilamentUsages[0].MaterialType)
			assert.Equal(t, float64(0), print.FilamentUsages[0].ActualWeight)
		}
	})
}

func TestMigrateModel_Requirements(t *testing.T) {
	model := MigrateModel(map[string]any{
		"id":   float64(3),
		"name": "Vase",
		"requirements": []any{
			map[string]any{"filamentId": float64(2), "materialType": "PLA", "color": "Red"},
			"not-a-requirement",
		},
	})

	assert.Equal(t, 3, model.ID)
	if assert.Len(t, model.Requirements, 1) {
		assert.Equal(t, 2, model.Requirements[0].FilamentID)
	}
}
