package models

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaterialPLA  = "PLA"
	MaterialPETG = "PETG"
	MaterialABS  = "ABS"
	MaterialTPU  = "TPU"

	// MaterialOther is the escape hatch that admits free-form material
	// types past the allowed-value check.
	MaterialOther = "Other"

	DefaultBrand    = "Unknown"
	DefaultColorHex = "#cccccc"
	DefaultDiameter = 1.75

	TempFloor   = 150
	TempCeiling = 350
)

var (
	colorHexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

	// Diameters are the only spool diameters sold for consumer printers.
	Diameters = []float64{1.75, 2.85}
)

// DefaultMaterialTypes returns the built-in material set. Free-form
// values entered through the "Other" escape hatch extend the process-wide
// set once a filament carrying them is saved.
func DefaultMaterialTypes() []string {
	return []string{MaterialPLA, MaterialPETG, MaterialABS, MaterialTPU}
}

type Filament struct {
	ID            int      `json:"id"`
	Brand         string   `json:"brand"`
	MaterialType  string   `json:"materialType"`
	Color         string   `json:"color"`
	ColorHex      string   `json:"colorHex"`
	Diameter      float64  `json:"diameter"`
	Weight        float64  `json:"weight"`
	InStock       bool     `json:"inStock"`
	PurchasePrice *float64 `json:"purchasePrice,omitempty"`
	Location      string   `json:"location,omitempty"`
	TempMin       *int     `json:"tempMin,omitempty"`
	TempMax       *int     `json:"tempMax,omitempty"`
	Notes         string   `json:"notes,omitempty"`

	// DeletionBlocked marks a spool whose hard delete was refused by the
	// integrity guard and was soft-retired instead.
	DeletionBlocked bool `json:"deletionBlocked,omitempty"`
}

func ValidColorHex(hex string) bool {
	return colorHexPattern.MatchString(hex)
}

func ValidDiameter(d float64) bool {
	for _, allowed := range Diameters {
		if d == allowed {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants every persisted filament must
// hold. Save refuses to flush a collection containing a violation.
func (f *Filament) Validate() error {
	if f.ID <= 0 {
		return fmt.Errorf("filament id must be positive, got %d", f.ID)
	}
	if strings.TrimSpace(f.Brand) == "" {
		return fmt.Errorf("filament %d: brand is required", f.ID)
	}
	if strings.TrimSpace(f.MaterialType) == "" {
		return fmt.Errorf("filament %d: material type is required", f.ID)
	}
	if !ValidColorHex(f.ColorHex) {
		return fmt.Errorf("filament %d: colorHex %q must match #RRGGBB", f.ID, f.ColorHex)
	}
	if !ValidDiameter(f.Diameter) {
		return fmt.Errorf("filament %d: diameter %v must be one of %v", f.ID, f.Diameter, Diameters)
	}
	if f.Weight <= 0 {
		return fmt.Errorf("filament %d: weight must be positive, got %v", f.ID, f.Weight)
	}
	if f.PurchasePrice != nil && *f.PurchasePrice < 0 {
		return fmt.Errorf("filament %d: purchase price cannot be negative", f.ID)
	}
	if f.TempMin != nil || f.TempMax != nil {
		if f.TempMin == nil || f.TempMax == nil {
			return fmt.Errorf("filament %d: temperature range requires both min and max", f.ID)
		}
		if *f.TempMin < TempFloor || *f.TempMax > TempCeiling || *f.TempMin >= *f.TempMax {
			return fmt.Errorf(
				"filament %d: temperature range %d-%d outside %d <= min < max <= %d",
				f.ID, *f.TempMin, *f.TempMax, TempFloor, TempCeiling,
			)
		}
	}
	return nil
}

// SearchText is the concatenation the grid filter matches against.
func (f *Filament) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		f.Brand, f.MaterialType, f.Color, f.Location,
	}, " "))
}
