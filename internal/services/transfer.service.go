package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"spooltrack/internal/utils"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
)

type ImportMode string

const (
	// ImportReplace overwrites each non-empty imported collection.
	ImportReplace ImportMode = "replace"
	// ImportAdd appends, skipping models whose name collides.
	ImportAdd ImportMode = "add"
)

// ImportResult reports what an import changed.
type ImportResult struct {
	Mode      ImportMode `json:"mode"`
	Filaments int        `json:"filaments"`
	Models    int        `json:"models"`
	Prints    int        `json:"prints"`
}

// TransferService produces and consumes the JSON interchange document.
type TransferService struct {
	store *store.EntityStore
	clock utils.Clock
	log   logger.Logger
}

func NewTransferService(entityStore *store.EntityStore, clock utils.Clock) *TransferService {
	return &TransferService{
		store: entityStore,
		clock: clock,
		log:   logger.New("transferService"),
	}
}

// Export wraps the full state with provenance metadata.
func (s *TransferService) Export() models.ExportDocument {
	filaments := s.store.Filaments()

	return models.ExportDocument{
		Version:     models.EnvelopeVersion,
		ExportDate:  s.clock.Now(),
		Application: models.ApplicationName,
		Data: models.ExportData{
			Filaments: filaments,
			Models:    s.store.Models(),
			Prints:    s.store.Prints(),
		},
		Metadata: models.ExportMetadata{
			TotalFilaments: len(filaments),
			TotalModels:    len(s.store.Models()),
			TotalPrints:    len(s.store.Prints()),
			MaterialTypes:  s.store.MaterialTypes(),
			Brands:         distinctBrands(filaments),
		},
	}
}

func distinctBrands(filaments []models.Filament) []string {
	seen := make(map[string]bool)
	brands := make([]string, 0)
	for _, filament := range filaments {
		key := strings.ToLower(filament.Brand)
		if filament.Brand != "" && !seen[key] {
			seen[key] = true
			brands = append(brands, filament.Brand)
		}
	}
	sort.Strings(brands)
	return brands
}

// rawImport accepts both the enhanced envelope layout and the legacy
// bare-collections layout.
type rawImport struct {
	Version string `json:"version"`
	Data    *struct {
		Filaments []json.RawMessage `json:"filaments"`
		Models    []json.RawMessage `json:"models"`
		Prints    []json.RawMessage `json:"prints"`
	} `json:"data"`
	Filaments []json.RawMessage `json:"filaments"`
	Models    []json.RawMessage `json:"models"`
	Prints    []json.RawMessage `json:"prints"`
}

// Import parses the document, migrates every record with the same
// defaulting as a legacy load, and applies it in the requested mode. A
// document that cannot be parsed or contains no recognized collections is
// rejected whole; no partial import occurs.
func (s *TransferService) Import(document []byte, mode ImportMode) (ImportResult, error) {
	log := s.log.Function("Import")

	if mode != ImportReplace && mode != ImportAdd {
		return ImportResult{}, fmt.Errorf("%w: unknown import mode %q", models.ErrImportFormat, mode)
	}

	var raw rawImport
	if err := json.Unmarshal(document, &raw); err != nil {
		return ImportResult{}, fmt.Errorf("%w: not valid JSON: %s", models.ErrImportFormat, err)
	}

	rawFilaments, rawModels, rawPrints := raw.Filaments, raw.Models, raw.Prints
	if raw.Data != nil {
		rawFilaments, rawModels, rawPrints = raw.Data.Filaments, raw.Data.Models, raw.Data.Prints
	}

	if len(rawFilaments) == 0 && len(rawModels) == 0 && len(rawPrints) == 0 {
		return ImportResult{}, fmt.Errorf("%w: no recognized collections", models.ErrImportFormat)
	}

	data := models.ExportData{
		Filaments: migrateRawFilaments(rawFilaments),
		Models:    migrateRawModels(rawModels),
		Prints:    migrateRawPrints(rawPrints, s.clock),
	}

	result := ImportResult{Mode: mode}
	switch mode {
	case ImportReplace:
		err := s.store.ReplaceAll(data)
		result.Filaments = len(data.Filaments)
		result.Models = len(data.Models)
		result.Prints = len(data.Prints)
		if err != nil {
			// The import took effect in memory; report what was applied.
			return result, err
		}
	case ImportAdd:
		added, err := s.store.BulkAdd(data)
		result.Filaments = added.TotalFilaments
		result.Models = added.TotalModels
		result.Prints = added.TotalPrints
		if err != nil {
			return result, err
		}
	}

	log.Info("Import applied",
		"mode", mode,
		"filaments", result.Filaments,
		"models", result.Models,
		"prints", result.Prints,
	)
	return result, nil
}

func migrateRawFilaments(records []json.RawMessage) []models.Filament {
	filaments := make([]models.Filament, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		filaments = append(filaments, store.MigrateFilament(raw))
	}
	return filaments
}

func migrateRawModels(records []json.RawMessage) []models.PrintModel {
	printModels := make([]models.PrintModel, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		printModels = append(printModels, store.MigrateModel(raw))
	}
	return printModels
}

func migrateRawPrints(records []json.RawMessage, clock utils.Clock) []models.PrintRecord {
	prints := make([]models.PrintRecord, 0, len(records))
	for _, record := range records {
		var raw map[string]any
		if err := json.Unmarshal(record, &raw); err != nil {
			continue
		}
		prints = append(prints, store.MigratePrint(raw, clock))
	}
	return prints
}
