package models

import (
	"fmt"
	"strings"
)

// Requirement names one filament a model needs. MaterialType and Color are
// denormalized from the referenced filament so the row stays displayable if
// the filament is later retired or deleted.
type Requirement struct {
	FilamentID   int    `json:"filamentId"`
	MaterialType string `json:"materialType"`
	Color        string `json:"color"`
}

type PrintModel struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Link         string        `json:"link,omitempty"`
	Requirements []Requirement `json:"requirements"`
}

func (m *PrintModel) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("model id must be positive, got %d", m.ID)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("model %d: name is required", m.ID)
	}
	return nil
}

// RequiresFilament reports whether any requirement references the filament.
func (m *PrintModel) RequiresFilament(filamentID int) bool {
	for _, req := range m.Requirements {
		if req.FilamentID == filamentID {
			return true
		}
	}
	return false
}

func (m *PrintModel) SearchText() string {
	return strings.ToLower(m.Name + " " + m.Link)
}
