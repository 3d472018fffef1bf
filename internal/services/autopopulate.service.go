package services

import (
	"fmt"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
)

// AutoPopulateService derives the initial filament-usage list for a new
// print record from the selected model's requirements. It runs on model
// selection only, and a reselection replaces the whole list.
type AutoPopulateService struct {
	store *store.EntityStore
	log   logger.Logger
}

func NewAutoPopulateService(entityStore *store.EntityStore) *AutoPopulateService {
	return &AutoPopulateService{
		store: entityStore,
		log:   logger.New("autoPopulateService"),
	}
}

// UsagesForModel produces one usage per requirement: resolved by filament
// id when the spool still exists, else by (material, color) among in-stock
// spools, else kept as an unresolved entry the UI marks "not available".
// Actual weight is always left for the user to fill in.
func (s *AutoPopulateService) UsagesForModel(modelID int) ([]models.FilamentUsage, error) {
	model, found := s.store.ModelByID(modelID)
	if !found {
		return nil, fmt.Errorf("model %d: %w", modelID, models.ErrNotFound)
	}

	filaments := s.store.Filaments()
	usages := make([]models.FilamentUsage, 0, len(model.Requirements))

	for _, requirement := range model.Requirements {
		if filament, ok := byID(filaments, requirement.FilamentID); ok {
			usages = append(usages, models.FilamentUsage{
				FilamentID:   filament.ID,
				MaterialType: filament.MaterialType,
				Color:        filament.Color,
			})
			continue
		}

		if filament, ok := byMaterialAndColor(filaments, requirement); ok {
			usages = append(usages, models.FilamentUsage{
				FilamentID:   filament.ID,
				MaterialType: filament.MaterialType,
				Color:        filament.Color,
			})
			continue
		}

		usages = append(usages, models.FilamentUsage{
			FilamentID:   requirement.FilamentID,
			MaterialType: requirement.MaterialType,
			Color:        requirement.Color,
			Unresolved:   true,
		})
	}

	return usages, nil
}

// byID matches the exact spool, but only while it is still in stock; a
// retired spool falls through to the material/color fallback.
func byID(filaments []models.Filament, id int) (models.Filament, bool) {
	if id <= 0 {
		return models.Filament{}, false
	}
	for _, filament := range filaments {
		if filament.ID == id && filament.InStock {
			return filament, true
		}
	}
	return models.Filament{}, false
}

// byMaterialAndColor is the fallback when the required spool was deleted:
// any in-stock spool of the same material and color will do.
func byMaterialAndColor(filaments []models.Filament, req models.Requirement) (models.Filament, bool) {
	for _, filament := range filaments {
		if !filament.InStock {
			continue
		}
		if strings.EqualFold(filament.MaterialType, req.MaterialType) &&
			strings.EqualFold(filament.Color, req.Color) {
			return filament, true
		}
	}
	return models.Filament{}, false
}
