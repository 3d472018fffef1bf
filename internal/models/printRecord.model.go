package models

import (
	"fmt"
	"strings"
)

type QualityRating string

const (
	QualityExcellent QualityRating = "excellent"
	QualityGood      QualityRating = "good"
	QualityFair      QualityRating = "fair"
	QualityPoor      QualityRating = "poor"
)

func ValidQualityRating(q QualityRating) bool {
	switch q {
	case QualityExcellent, QualityGood, QualityFair, QualityPoor:
		return true
	}
	return false
}

// FilamentUsage records how much of one spool a print consumed. Usages
// created before filament ids existed carry only material/color strings;
// those are matched by string as a legacy fallback only.
type FilamentUsage struct {
	FilamentID   int     `json:"filamentId,omitempty"`
	MaterialType string  `json:"materialType"`
	Color        string  `json:"color,omitempty"`
	ActualWeight float64 `json:"actualWeight"`

	// Unresolved marks a usage whose requirement could not be matched to
	// any live spool during auto-populate.
	Unresolved bool `json:"unresolved,omitempty"`
}

type PrintRecord struct {
	ID             int             `json:"id"`
	ModelID        int             `json:"modelId,omitempty"`
	ModelName      string          `json:"modelName,omitempty"`
	Date           Date            `json:"date"`
	FilamentUsages []FilamentUsage `json:"filamentUsages"`
	QualityRating  QualityRating   `json:"qualityRating,omitempty"`
	Duration       *float64        `json:"duration,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

func (p *PrintRecord) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("print record id must be positive, got %d", p.ID)
	}
	if p.ModelID <= 0 && strings.TrimSpace(p.ModelName) == "" {
		return fmt.Errorf("print record %d: model reference is required", p.ID)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("print record %d: date is required", p.ID)
	}
	if p.QualityRating != "" && !ValidQualityRating(p.QualityRating) {
		return fmt.Errorf("print record %d: invalid quality rating %q", p.ID, p.QualityRating)
	}
	if p.Duration != nil && *p.Duration < 0 {
		return fmt.Errorf("print record %d: duration cannot be negative", p.ID)
	}
	for i, usage := range p.FilamentUsages {
		if usage.ActualWeight < 0 {
			return fmt.Errorf("print record %d: usage %d weight cannot be negative", p.ID, i)
		}
	}
	return nil
}

// UsesFilament reports whether any usage references the filament by id.
func (p *PrintRecord) UsesFilament(filamentID int) bool {
	for _, usage := range p.FilamentUsages {
		if usage.FilamentID == filamentID {
			return true
		}
	}
	return false
}

func (p *PrintRecord) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		p.ModelName, p.Notes, string(p.QualityRating),
	}, " "))
}
