package services

import (
	"fmt"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
)

// Confirmer is the injected stand-in for the blocking confirmation dialog,
// so deletion decisions stay testable without a UI.
type Confirmer interface {
	ConfirmAction(prompt string) bool
}

// ConfirmerFunc adapts a plain function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) ConfirmAction(prompt string) bool {
	return f(prompt)
}

// FilamentReferences enumerates everything still pointing at a filament.
type FilamentReferences struct {
	Models []models.PrintModel  `json:"models"`
	Prints []models.PrintRecord `json:"prints"`
}

func (r FilamentReferences) Empty() bool {
	return len(r.Models) == 0 && len(r.Prints) == 0
}

// DeleteOutcome reports what the guard decided to do with a filament.
type DeleteOutcome struct {
	Deleted    bool               `json:"deleted"`
	Retired    bool               `json:"retired"`
	References FilamentReferences `json:"references"`
}

// IntegrityService enforces the ON DELETE RESTRICT policy on filaments:
// a referenced spool can only be soft-retired, never removed.
type IntegrityService struct {
	store *store.EntityStore
	log   logger.Logger
}

func NewIntegrityService(entityStore *store.EntityStore) *IntegrityService {
	return &IntegrityService{
		store: entityStore,
		log:   logger.New("integrityService"),
	}
}

// FindReferences collects every model and print record referencing the
// filament. Matching is by id; the color+material string match exists only
// for print usages written before filament ids existed.
func (s *IntegrityService) FindReferences(filamentID int) FilamentReferences {
	var references FilamentReferences

	filament, found := s.store.FilamentByID(filamentID)

	for _, model := range s.store.Models() {
		if model.RequiresFilament(filamentID) {
			references.Models = append(references.Models, model)
		}
	}

	for _, print := range s.store.Prints() {
		if print.UsesFilament(filamentID) {
			references.Prints = append(references.Prints, print)
			continue
		}
		if found && legacyUsageMatch(print, filament) {
			references.Prints = append(references.Prints, print)
		}
	}

	return references
}

// legacyUsageMatch matches pre-id usages by color and material strings.
func legacyUsageMatch(print models.PrintRecord, filament models.Filament) bool {
	for _, usage := range print.FilamentUsages {
		if usage.FilamentID != 0 {
			continue
		}
		if strings.EqualFold(usage.MaterialType, filament.MaterialType) &&
			strings.EqualFold(usage.Color, filament.Color) {
			return true
		}
	}
	return false
}

// DeleteFilament applies the guard. Unreferenced: hard delete, after the
// confirmer approves. Referenced: deletion refused; the confirmer is
// offered soft retirement instead.
func (s *IntegrityService) DeleteFilament(filamentID int, confirmer Confirmer) (DeleteOutcome, error) {
	log := s.log.Function("DeleteFilament")

	filament, found := s.store.FilamentByID(filamentID)
	if !found {
		return DeleteOutcome{}, fmt.Errorf("filament %d: %w", filamentID, models.ErrNotFound)
	}

	references := s.FindReferences(filamentID)
	outcome := DeleteOutcome{References: references}

	if references.Empty() {
		prompt := fmt.Sprintf("Delete %s %s %s?", filament.Brand, filament.MaterialType, filament.Color)
		if !confirmer.ConfirmAction(prompt) {
			return outcome, nil
		}
		if err := s.store.RemoveFilament(filamentID); err != nil {
			return outcome, err
		}
		outcome.Deleted = true
		log.Info("Filament deleted", "id", filamentID)
		return outcome, nil
	}

	prompt := fmt.Sprintf(
		"%s %s %s is referenced by %d model(s) and %d print(s) and cannot be deleted. Mark it out of stock instead?",
		filament.Brand, filament.MaterialType, filament.Color,
		len(references.Models), len(references.Prints),
	)
	if !confirmer.ConfirmAction(prompt) {
		return outcome, fmt.Errorf(
			"filament %d is referenced by %d model(s) and %d print(s): %w",
			filamentID, len(references.Models), len(references.Prints),
			models.ErrReferentialIntegrity,
		)
	}

	if _, err := s.store.RetireFilament(filamentID); err != nil {
		return outcome, err
	}
	outcome.Retired = true
	log.Info("Filament soft-retired", "id", filamentID,
		"models", len(references.Models), "prints", len(references.Prints))
	return outcome, nil
}
