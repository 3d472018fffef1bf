package store

import (
	"encoding/json"
	"fmt"
	"spooltrack/internal/database"
	"spooltrack/internal/events"
	. "spooltrack/internal/models"
	"spooltrack/internal/utils"
	"strings"
	"sync"

	logger "github.com/Bparsons0904/goLogger"
)

// Blob keys. The envelope is authoritative; the bare per-collection keys
// are mirrored on every save for readers of the pre-envelope layout.
const (
	ENVELOPE_KEY  = "inventory"
	FILAMENTS_KEY = "filaments"
	MODELS_KEY    = "models"
	PRINTS_KEY    = "prints"
)

// EntityStore owns the three collections for the process lifetime. Every
// mutation goes through it; nothing else touches the slices.
type EntityStore struct {
	db    database.DB
	bus   *events.EventBus
	clock utils.Clock
	log   logger.Logger

	mu        sync.RWMutex
	filaments []Filament
	models    []PrintModel
	prints    []PrintRecord

	nextFilamentID int
	nextModelID    int
	nextPrintID    int
}

func New(db database.DB, bus *events.EventBus, clock utils.Clock) *EntityStore {
	return &EntityStore{
		db:             db,
		bus:            bus,
		clock:          clock,
		log:            logger.New("store"),
		nextFilamentID: 1,
		nextModelID:    1,
		nextPrintID:    1,
	}
}

// Load reads the persisted envelope, falling back to the legacy bare keys
// when no envelope exists. Records are migrated field by field; a single
// malformed record never fails the whole load.
func (s *EntityStore) Load() error {
	log := s.log.Function("Load")

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.db.Get(ENVELOPE_KEY)
	if err != nil {
		return log.Err("failed to read inventory envelope", err)
	}

	if found {
		var envelope rawEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			return log.Err("failed to parse inventory envelope", err)
		}
		s.filaments = migrateFilaments(envelope.Filaments)
		s.models = migrateModels(envelope.Models)
		s.prints = migratePrints(envelope.Prints, s.clock)
	} else {
		log.Info("No envelope found, reading legacy collection keys")
		s.filaments = migrateFilaments(s.legacyCollection(FILAMENTS_KEY))
		s.models = migrateModels(s.legacyCollection(MODELS_KEY))
		s.prints = migratePrints(s.legacyCollection(PRINTS_KEY), s.clock)
	}

	s.seedCounters()
	s.adoptMissingIDs()
	for i := range s.filaments {
		s.recomputeStock(s.filaments[i].ID)
	}

	log.Info("Inventory loaded",
		"filaments", len(s.filaments),
		"models", len(s.models),
		"prints", len(s.prints),
	)
	return nil
}

func (s *EntityStore) legacyCollection(key string) []json.RawMessage {
	raw, found, err := s.db.Get(key)
	if err != nil || !found {
		return nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.Warn("Skipping unparseable legacy collection", "key", key, "error", err)
		return nil
	}
	return records
}

func (s *EntityStore) seedCounters() {
	for _, f := range s.filaments {
		if f.ID >= s.nextFilamentID {
			s.nextFilamentID = f.ID + 1
		}
	}
	for _, m := range s.models {
		if m.ID >= s.nextModelID {
			s.nextModelID = m.ID + 1
		}
	}
	for _, p := range s.prints {
		if p.ID >= s.nextPrintID {
			s.nextPrintID = p.ID + 1
		}
	}
}

// adoptMissingIDs assigns ids to migrated records that never had one.
func (s *EntityStore) adoptMissingIDs() {
	for i := range s.filaments {
		if s.filaments[i].ID <= 0 {
			s.filaments[i].ID = s.assignFilamentID()
		}
	}
	for i := range s.models {
		if s.models[i].ID <= 0 {
			s.models[i].ID = s.assignModelID()
		}
	}
	for i := range s.prints {
		if s.prints[i].ID <= 0 {
			s.prints[i].ID = s.assignPrintID()
		}
	}
}

func (s *EntityStore) assignFilamentID() int {
	id := s.nextFilamentID
	s.nextFilamentID++
	return id
}

func (s *EntityStore) assignModelID() int {
	id := s.nextModelID
	s.nextModelID++
	return id
}

func (s *EntityStore) assignPrintID() int {
	id := s.nextPrintID
	s.nextPrintID++
	return id
}

// save validates and flushes the full state. Caller holds the lock. A
// validation failure leaves the previously persisted state untouched; a
// write failure leaves in-memory state as current (non-durable contract).
func (s *EntityStore) save() error {
	for i := range s.filaments {
		if err := s.filaments[i].Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrValidation, err)
		}
	}

	envelope := Envelope{
		Version:   EnvelopeVersion,
		LastSaved: s.clock.Now(),
		Filaments: s.filaments,
		Models:    s.models,
		Prints:    s.prints,
	}

	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}
	filamentsJSON, err := json.Marshal(s.filaments)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}
	modelsJSON, err := json.Marshal(s.models)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}
	printsJSON, err := json.Marshal(s.prints)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	err = s.db.PutAll(map[string]string{
		ENVELOPE_KEY:  string(envelopeJSON),
		FILAMENTS_KEY: string(filamentsJSON),
		MODELS_KEY:    string(modelsJSON),
		PRINTS_KEY:    string(printsJSON),
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	return nil
}

// Save flushes the current state without mutating it.
func (s *EntityStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *EntityStore) publish(eventType events.EventType, entityID int) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(events.INVENTORY_CHANNEL, events.Event{
		Type:     eventType,
		EntityID: entityID,
	})
}

// ---- filaments ----

func (s *EntityStore) Filaments() []Filament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Filament(nil), s.filaments...)
}

func (s *EntityStore) FilamentByID(id int) (Filament, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.filaments {
		if f.ID == id {
			return f, true
		}
	}
	return Filament{}, false
}

// MaterialTypes returns the process-wide material set: the defaults plus
// every free-form value admitted through the "Other" escape hatch.
func (s *EntityStore) MaterialTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := DefaultMaterialTypes()
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		seen[strings.ToLower(t)] = true
	}
	for _, f := range s.filaments {
		key := strings.ToLower(f.MaterialType)
		if f.MaterialType != "" && !seen[key] {
			seen[key] = true
			types = append(types, f.MaterialType)
		}
	}
	return types
}

// Duplicates returns other spools with the same brand, material and hex
// color. Such records are distinct inventory units; callers may surface
// them as an advisory but nothing ever merges them.
func (s *EntityStore) Duplicates(filament Filament) []Filament {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var duplicates []Filament
	for _, candidate := range s.filaments {
		if candidate.ID == filament.ID {
			continue
		}
		if strings.EqualFold(candidate.Brand, filament.Brand) &&
			strings.EqualFold(candidate.MaterialType, filament.MaterialType) &&
			strings.EqualFold(candidate.ColorHex, filament.ColorHex) {
			duplicates = append(duplicates, candidate)
		}
	}
	return duplicates
}

func (s *EntityStore) CreateFilament(filament Filament) (Filament, error) {
	log := s.log.Function("CreateFilament")

	s.mu.Lock()
	filament.ID = s.assignFilamentID()
	filament.DeletionBlocked = false
	if err := filament.Validate(); err != nil {
		s.nextFilamentID--
		s.mu.Unlock()
		return Filament{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	filament.InStock = filament.Weight > 0
	s.filaments = append(s.filaments, filament)
	err := s.save()
	s.mu.Unlock()

	s.publish(events.FILAMENT_CREATED, filament.ID)
	if err != nil {
		return filament, log.Err("filament created but not persisted", err, "id", filament.ID)
	}
	return filament, nil
}

func (s *EntityStore) UpdateFilament(filament Filament) (Filament, error) {
	log := s.log.Function("UpdateFilament")

	s.mu.Lock()
	index := -1
	for i := range s.filaments {
		if s.filaments[i].ID == filament.ID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return Filament{}, fmt.Errorf("filament %d: %w", filament.ID, ErrNotFound)
	}

	// A retired spool stays retired through edits.
	filament.DeletionBlocked = s.filaments[index].DeletionBlocked

	if err := filament.Validate(); err != nil {
		s.mu.Unlock()
		return Filament{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	s.filaments[index] = filament
	s.recomputeStock(filament.ID)
	updated := s.filaments[index]
	err := s.save()
	s.mu.Unlock()

	s.publish(events.FILAMENT_UPDATED, filament.ID)
	if err != nil {
		return updated, log.Err("filament updated but not persisted", err, "id", filament.ID)
	}
	return updated, nil
}

// RemoveFilament hard-deletes. The integrity guard decides whether this is
// permitted; the store only executes the decision.
func (s *EntityStore) RemoveFilament(id int) error {
	log := s.log.Function("RemoveFilament")

	s.mu.Lock()
	index := -1
	for i := range s.filaments {
		if s.filaments[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("filament %d: %w", id, ErrNotFound)
	}
	s.filaments = append(s.filaments[:index], s.filaments[index+1:]...)
	err := s.save()
	s.mu.Unlock()

	s.publish(events.FILAMENT_DELETED, id)
	if err != nil {
		return log.Err("filament deleted but not persisted", err, "id", id)
	}
	return nil
}

// RetireFilament soft-retires a spool whose hard delete was blocked.
func (s *EntityStore) RetireFilament(id int) (Filament, error) {
	log := s.log.Function("RetireFilament")

	s.mu.Lock()
	index := -1
	for i := range s.filaments {
		if s.filaments[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return Filament{}, fmt.Errorf("filament %d: %w", id, ErrNotFound)
	}
	s.filaments[index].InStock = false
	s.filaments[index].DeletionBlocked = true
	retired := s.filaments[index]
	err := s.save()
	s.mu.Unlock()

	s.publish(events.FILAMENT_RETIRED, id)
	if err != nil {
		return retired, log.Err("filament retired but not persisted", err, "id", id)
	}
	return retired, nil
}

// remainingWeight derives what is left of a spool: acquisition weight minus
// every usage matching by id. Caller holds the lock.
func (s *EntityStore) remainingWeight(id int) float64 {
	var filament *Filament
	for i := range s.filaments {
		if s.filaments[i].ID == id {
			filament = &s.filaments[i]
			break
		}
	}
	if filament == nil {
		return 0
	}

	remaining := filament.Weight
	for _, print := range s.prints {
		for _, usage := range print.FilamentUsages {
			if usage.FilamentID == id {
				remaining -= usage.ActualWeight
			}
		}
	}
	return remaining
}

// RemainingWeight is the authoritative stock figure; the stored InStock
// flag is derived from it.
func (s *EntityStore) RemainingWeight(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remainingWeight(id)
}

// recomputeStock re-derives InStock. Retirement wins: a soft-retired spool
// never comes back in stock through print edits. Caller holds the lock.
func (s *EntityStore) recomputeStock(id int) {
	for i := range s.filaments {
		if s.filaments[i].ID == id {
			if s.filaments[i].DeletionBlocked {
				s.filaments[i].InStock = false
			} else {
				s.filaments[i].InStock = s.remainingWeight(id) > 0
			}
			return
		}
	}
}

// ---- models ----

func (s *EntityStore) Models() []PrintModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PrintModel(nil), s.models...)
}

func (s *EntityStore) ModelByID(id int) (PrintModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.models {
		if m.ID == id {
			return m, true
		}
	}
	return PrintModel{}, false
}

// nameTaken reports a case-insensitive name collision with any model other
// than excludeID. Caller holds the lock.
func (s *EntityStore) nameTaken(name string, excludeID int) bool {
	for _, m := range s.models {
		if m.ID != excludeID && strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

func (s *EntityStore) CreateModel(model PrintModel) (PrintModel, error) {
	log := s.log.Function("CreateModel")

	s.mu.Lock()
	if strings.TrimSpace(model.Name) == "" {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("%w: model name is required", ErrValidation)
	}
	if s.nameTaken(model.Name, 0) {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("%w: model name %q already exists", ErrValidation, model.Name)
	}
	model.ID = s.assignModelID()
	s.models = append(s.models, model)
	err := s.save()
	s.mu.Unlock()

	s.publish(events.MODEL_CREATED, model.ID)
	if err != nil {
		return model, log.Err("model created but not persisted", err, "id", model.ID)
	}
	return model, nil
}

func (s *EntityStore) UpdateModel(model PrintModel) (PrintModel, error) {
	log := s.log.Function("UpdateModel")

	s.mu.Lock()
	index := -1
	for i := range s.models {
		if s.models[i].ID == model.ID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("model %d: %w", model.ID, ErrNotFound)
	}
	if strings.TrimSpace(model.Name) == "" {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("%w: model name is required", ErrValidation)
	}
	if s.nameTaken(model.Name, model.ID) {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("%w: model name %q already exists", ErrValidation, model.Name)
	}
	// A requirements list, once non-empty, must stay non-empty.
	if len(s.models[index].Requirements) > 0 && len(model.Requirements) == 0 {
		s.mu.Unlock()
		return PrintModel{}, fmt.Errorf("%w: a model must keep at least one requirement", ErrValidation)
	}

	s.models[index] = model
	err := s.save()
	s.mu.Unlock()

	s.publish(events.MODEL_UPDATED, model.ID)
	if err != nil {
		return model, log.Err("model updated but not persisted", err, "id", model.ID)
	}
	return model, nil
}

func (s *EntityStore) DeleteModel(id int) error {
	log := s.log.Function("DeleteModel")

	s.mu.Lock()
	index := -1
	for i := range s.models {
		if s.models[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("model %d: %w", id, ErrNotFound)
	}
	s.models = append(s.models[:index], s.models[index+1:]...)
	err := s.save()
	s.mu.Unlock()

	s.publish(events.MODEL_DELETED, id)
	if err != nil {
		return log.Err("model deleted but not persisted", err, "id", id)
	}
	return nil
}

// ---- prints ----

func (s *EntityStore) Prints() []PrintRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PrintRecord(nil), s.prints...)
}

func (s *EntityStore) PrintByID(id int) (PrintRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prints {
		if p.ID == id {
			return p, true
		}
	}
	return PrintRecord{}, false
}

func (s *EntityStore) CreatePrint(print PrintRecord) (PrintRecord, error) {
	log := s.log.Function("CreatePrint")

	s.mu.Lock()
	print.ID = s.assignPrintID()
	if err := print.Validate(); err != nil {
		s.nextPrintID--
		s.mu.Unlock()
		return PrintRecord{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	s.prints = append(s.prints, print)
	for _, usage := range print.FilamentUsages {
		s.recomputeStock(usage.FilamentID)
	}
	err := s.save()
	s.mu.Unlock()

	s.publish(events.PRINT_CREATED, print.ID)
	if err != nil {
		return print, log.Err("print created but not persisted", err, "id", print.ID)
	}
	return print, nil
}

func (s *EntityStore) UpdatePrint(print PrintRecord) (PrintRecord, error) {
	log := s.log.Function("UpdatePrint")

	s.mu.Lock()
	index := -1
	for i := range s.prints {
		if s.prints[i].ID == print.ID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return PrintRecord{}, fmt.Errorf("print record %d: %w", print.ID, ErrNotFound)
	}
	if err := print.Validate(); err != nil {
		s.mu.Unlock()
		return PrintRecord{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	previous := s.prints[index]
	s.prints[index] = print
	for _, usage := range previous.FilamentUsages {
		s.recomputeStock(usage.FilamentID)
	}
	for _, usage := range print.FilamentUsages {
		s.recomputeStock(usage.FilamentID)
	}
	err := s.save()
	s.mu.Unlock()

	s.publish(events.PRINT_UPDATED, print.ID)
	if err != nil {
		return print, log.Err("print updated but not persisted", err, "id", print.ID)
	}
	return print, nil
}

func (s *EntityStore) DeletePrint(id int) error {
	log := s.log.Function("DeletePrint")

	s.mu.Lock()
	index := -1
	for i := range s.prints {
		if s.prints[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("print record %d: %w", id, ErrNotFound)
	}
	deleted := s.prints[index]
	s.prints = append(s.prints[:index], s.prints[index+1:]...)
	for _, usage := range deleted.FilamentUsages {
		s.recomputeStock(usage.FilamentID)
	}
	err := s.save()
	s.mu.Unlock()

	s.publish(events.PRINT_DELETED, id)
	if err != nil {
		return log.Err("print deleted but not persisted", err, "id", id)
	}
	return nil
}

// ---- import ----

// ReplaceAll overwrites each non-empty imported collection and reseeds the
// id counters. Empty imported collections leave the existing data alone.
func (s *EntityStore) ReplaceAll(data ExportData) error {
	log := s.log.Function("ReplaceAll")

	s.mu.Lock()
	if len(data.Filaments) > 0 {
		s.filaments = data.Filaments
	}
	if len(data.Models) > 0 {
		s.models = data.Models
	}
	if len(data.Prints) > 0 {
		s.prints = data.Prints
	}
	s.nextFilamentID, s.nextModelID, s.nextPrintID = 1, 1, 1
	s.seedCounters()
	s.adoptMissingIDs()
	for i := range s.filaments {
		s.recomputeStock(s.filaments[i].ID)
	}
	err := s.save()
	s.mu.Unlock()

	s.publish(events.STORE_IMPORTED, 0)
	if err != nil {
		return log.Err("imported data not persisted", err)
	}
	return nil
}

// BulkAdd appends imported records with freshly assigned ids, rewriting
// the references inside the batch to the new ids. Models whose name
// collides case-insensitively with an existing model are skipped.
func (s *EntityStore) BulkAdd(data ExportData) (added ExportMetadata, err error) {
	log := s.log.Function("BulkAdd")

	s.mu.Lock()
	filamentIDs := make(map[int]int, len(data.Filaments))
	for _, filament := range data.Filaments {
		oldID := filament.ID
		filament.ID = s.assignFilamentID()
		if oldID > 0 {
			filamentIDs[oldID] = filament.ID
		}
		s.filaments = append(s.filaments, filament)
		added.TotalFilaments++
	}

	modelIDs := make(map[int]int, len(data.Models))
	for _, model := range data.Models {
		if s.nameTaken(model.Name, 0) {
			log.Info("Skipping imported model with duplicate name", "name", model.Name)
			continue
		}
		oldID := model.ID
		model.ID = s.assignModelID()
		if oldID > 0 {
			modelIDs[oldID] = model.ID
		}
		requirements := append([]Requirement(nil), model.Requirements...)
		for i := range requirements {
			if newID, ok := filamentIDs[requirements[i].FilamentID]; ok {
				requirements[i].FilamentID = newID
			}
		}
		model.Requirements = requirements
		s.models = append(s.models, model)
		added.TotalModels++
	}

	for _, print := range data.Prints {
		print.ID = s.assignPrintID()
		if newID, ok := modelIDs[print.ModelID]; ok {
			print.ModelID = newID
		}
		usages := append([]FilamentUsage(nil), print.FilamentUsages...)
		for i := range usages {
			if newID, ok := filamentIDs[usages[i].FilamentID]; ok {
				usages[i].FilamentID = newID
			}
		}
		print.FilamentUsages = usages
		s.prints = append(s.prints, print)
		added.TotalPrints++
	}

	for i := range s.filaments {
		s.recomputeStock(s.filaments[i].ID)
	}
	saveErr := s.save()
	s.mu.Unlock()

	s.publish(events.STORE_IMPORTED, 0)
	if saveErr != nil {
		return added, log.Err("imported data not persisted", saveErr)
	}
	return added, nil
}
