package services

import (
	"sort"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
)

// InventoryWarning flags a print whose usages would drive a spool's
// derived remaining weight negative. It is advisory: the user may record
// the print anyway.
type InventoryWarning struct {
	FilamentID int     `json:"filamentId"`
	Brand      string  `json:"brand"`
	Color      string  `json:"color"`
	Remaining  float64 `json:"remaining"`
	Requested  float64 `json:"requested"`
}

// MaterialBreakdown aggregates one material type across all spools.
type MaterialBreakdown struct {
	MaterialType   string `json:"materialType"`
	Spools         int    `json:"spools"`
	RemainingGrams string `json:"remainingGrams"`
}

// InventoryStats is the dashboard summary. Monetary and weight totals are
// computed with decimals and formatted as strings, so fractional grams and
// cents survive aggregation intact.
type InventoryStats struct {
	TotalFilaments int                 `json:"totalFilaments"`
	InStock        int                 `json:"inStock"`
	TotalModels    int                 `json:"totalModels"`
	TotalPrints    int                 `json:"totalPrints"`
	TotalSpend     string              `json:"totalSpend"`
	RemainingGrams string              `json:"remainingGrams"`
	ByMaterial     []MaterialBreakdown `json:"byMaterial"`
}

type InventoryService struct {
	store *store.EntityStore
	log   logger.Logger
}

func NewInventoryService(entityStore *store.EntityStore) *InventoryService {
	return &InventoryService{
		store: entityStore,
		log:   logger.New("inventoryService"),
	}
}

// CheckPrint returns a warning per usage that would overdraw its spool.
// Usages on the print being edited (excludePrintID) do not count against
// themselves.
func (s *InventoryService) CheckPrint(print models.PrintRecord, excludePrintID int) []InventoryWarning {
	var warnings []InventoryWarning

	requested := make(map[int]float64)
	for _, usage := range print.FilamentUsages {
		if usage.FilamentID > 0 {
			requested[usage.FilamentID] += usage.ActualWeight
		}
	}

	for filamentID, grams := range requested {
		filament, found := s.store.FilamentByID(filamentID)
		if !found {
			continue
		}
		remaining := s.remainingExcluding(filamentID, excludePrintID)
		if grams > remaining {
			warnings = append(warnings, InventoryWarning{
				FilamentID: filamentID,
				Brand:      filament.Brand,
				Color:      filament.Color,
				Remaining:  remaining,
				Requested:  grams,
			})
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].FilamentID < warnings[j].FilamentID
	})
	return warnings
}

func (s *InventoryService) remainingExcluding(filamentID, excludePrintID int) float64 {
	filament, found := s.store.FilamentByID(filamentID)
	if !found {
		return 0
	}

	remaining := filament.Weight
	for _, print := range s.store.Prints() {
		if print.ID == excludePrintID {
			continue
		}
		for _, usage := range print.FilamentUsages {
			if usage.FilamentID == filamentID {
				remaining -= usage.ActualWeight
			}
		}
	}
	return remaining
}

// Stats aggregates the whole inventory for the dashboard.
func (s *InventoryService) Stats() InventoryStats {
	filaments := s.store.Filaments()

	stats := InventoryStats{
		TotalFilaments: len(filaments),
		TotalModels:    len(s.store.Models()),
		TotalPrints:    len(s.store.Prints()),
	}

	spend := decimal.Zero
	remainingTotal := decimal.Zero
	byMaterial := make(map[string]*MaterialBreakdown)
	remainingByMaterial := make(map[string]decimal.Decimal)

	for _, filament := range filaments {
		if filament.InStock {
			stats.InStock++
		}
		if filament.PurchasePrice != nil {
			spend = spend.Add(decimal.NewFromFloat(*filament.PurchasePrice))
		}

		remaining := decimal.NewFromFloat(s.store.RemainingWeight(filament.ID))
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		remainingTotal = remainingTotal.Add(remaining)

		key := strings.ToUpper(filament.MaterialType)
		breakdown, exists := byMaterial[key]
		if !exists {
			breakdown = &MaterialBreakdown{MaterialType: key}
			byMaterial[key] = breakdown
		}
		breakdown.Spools++
		remainingByMaterial[key] = remainingByMaterial[key].Add(remaining)
	}

	stats.TotalSpend = spend.StringFixed(2)
	stats.RemainingGrams = remainingTotal.StringFixed(1)

	keys := make([]string, 0, len(byMaterial))
	for key := range byMaterial {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		breakdown := byMaterial[key]
		breakdown.RemainingGrams = remainingByMaterial[key].StringFixed(1)
		stats.ByMaterial = append(stats.ByMaterial, *breakdown)
	}

	return stats
}
