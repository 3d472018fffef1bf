package services

import (
	"fmt"
	"regexp"
	"spooltrack/internal/models"
	"spooltrack/internal/store"
	"spooltrack/internal/utils"
	"strconv"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
)

// Rule is a declarative field rule. Stages run in a fixed order and the
// first failing stage produces the message: presence, number coercion,
// range, length, pattern, allowed set, custom predicate.
type Rule struct {
	Label     string
	Required  bool
	Type      string // "number" triggers coercion
	Min       *float64
	Max       *float64
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp
	// PatternMessage overrides the generic pattern failure text.
	PatternMessage string
	Allowed        []string
	AllowedFn      func() []string
	// CustomAllowed skips the allowed-set check when the value is the
	// literal escape ("Other"), letting a companion free-form field
	// supply the real value.
	CustomAllowed   bool
	Validate        func(value string) bool
	ValidateMessage string
}

type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message}
}

// ValidationService evaluates named form fields against their rules.
// Field names are namespaced by entity: "filament.brand", "model.name",
// "print.date".
type ValidationService struct {
	rules map[string]Rule
	log   logger.Logger
}

func NewValidationService(entityStore *store.EntityStore, clock utils.Clock) *ValidationService {
	service := &ValidationService{
		rules: make(map[string]Rule),
		log:   logger.New("validationService"),
	}
	service.registerFilamentRules(entityStore)
	service.registerModelRules()
	service.registerPrintRules(clock)
	return service
}

// Validate evaluates one raw field value. Unknown fields pass; the rule
// registry is the single source of what gets checked.
func (v *ValidationService) Validate(field, raw string) ValidationResult {
	rule, known := v.rules[field]
	if !known {
		v.log.Warn("No rule registered for field", "field", field)
		return valid()
	}

	value := strings.TrimSpace(raw)
	label := rule.Label
	if label == "" {
		label = field
	}

	// 1. Presence.
	if value == "" {
		if rule.Required {
			return invalid(fmt.Sprintf("%s is required", label))
		}
		return valid()
	}

	// 2. Number coercion.
	var number float64
	if rule.Type == "number" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid(fmt.Sprintf("%s must be a number", label))
		}
		number = parsed
	}

	// 3. Range.
	if rule.Min != nil && number < *rule.Min {
		return invalid(fmt.Sprintf("%s must be at least %v", label, *rule.Min))
	}
	if rule.Max != nil && number > *rule.Max {
		return invalid(fmt.Sprintf("%s must be at most %v", label, *rule.Max))
	}

	// 4. Length.
	if rule.MinLength != nil && len(value) < *rule.MinLength {
		return invalid(fmt.Sprintf("%s must be at least %d characters", label, *rule.MinLength))
	}
	if rule.MaxLength != nil && len(value) > *rule.MaxLength {
		return invalid(fmt.Sprintf("%s must be at most %d characters", label, *rule.MaxLength))
	}

	// 5. Pattern.
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		if rule.PatternMessage != "" {
			return invalid(rule.PatternMessage)
		}
		return invalid(fmt.Sprintf("%s has an invalid format", label))
	}

	// 6. Allowed set.
	allowed := rule.Allowed
	if rule.AllowedFn != nil {
		allowed = rule.AllowedFn()
	}
	if len(allowed) > 0 && !(rule.CustomAllowed && value == models.MaterialOther) {
		match := false
		for _, candidate := range allowed {
			if strings.EqualFold(candidate, value) {
				match = true
				break
			}
		}
		if !match {
			return invalid(fmt.Sprintf("%s must be one of %s", label, strings.Join(allowed, ", ")))
		}
	}

	// 7. Custom predicate.
	if rule.Validate != nil && !rule.Validate(value) {
		if rule.ValidateMessage != "" {
			return invalid(rule.ValidateMessage)
		}
		return invalid(fmt.Sprintf("%s is invalid", label))
	}

	return valid()
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func (v *ValidationService) registerFilamentRules(entityStore *store.EntityStore) {
	v.rules["filament.brand"] = Rule{
		Label:     "Brand",
		Required:  true,
		MaxLength: intPtr(100),
	}
	v.rules["filament.materialType"] = Rule{
		Label:         "Material type",
		Required:      true,
		AllowedFn:     entityStore.MaterialTypes,
		CustomAllowed: true,
	}
	v.rules["filament.color"] = Rule{
		Label:     "Color",
		Required:  true,
		MaxLength: intPtr(100),
	}
	v.rules["filament.colorHex"] = Rule{
		Label:          "Color hex",
		Required:       true,
		Pattern:        regexp.MustCompile(`^#[0-9a-fA-F]{6}$`),
		PatternMessage: "Color hex must match #RRGGBB",
	}
	v.rules["filament.diameter"] = Rule{
		Label:    "Diameter",
		Required: true,
		Type:     "number",
		Allowed:  []string{"1.75", "2.85"},
	}
	v.rules["filament.weight"] = Rule{
		Label:           "Weight",
		Required:        true,
		Type:            "number",
		Validate:        func(value string) bool { f, _ := strconv.ParseFloat(value, 64); return f > 0 },
		ValidateMessage: "Weight must be greater than zero",
	}
	v.rules["filament.purchasePrice"] = Rule{
		Label: "Purchase price",
		Type:  "number",
		Min:   floatPtr(0),
	}
	v.rules["filament.location"] = Rule{
		Label:     "Location",
		MaxLength: intPtr(200),
	}
	v.rules["filament.tempMin"] = Rule{
		Label: "Minimum temperature",
		Type:  "number",
		Min:   floatPtr(models.TempFloor),
		Max:   floatPtr(models.TempCeiling - 1),
	}
	v.rules["filament.tempMax"] = Rule{
		Label: "Maximum temperature",
		Type:  "number",
		Min:   floatPtr(models.TempFloor + 1),
		Max:   floatPtr(models.TempCeiling),
	}
	v.rules["filament.notes"] = Rule{
		Label:     "Notes",
		MaxLength: intPtr(1000),
	}
}

func (v *ValidationService) registerModelRules() {
	v.rules["model.name"] = Rule{
		Label:     "Name",
		Required:  true,
		MaxLength: intPtr(200),
	}
	v.rules["model.link"] = Rule{
		Label:     "Link",
		MaxLength: intPtr(500),
	}
}

func (v *ValidationService) registerPrintRules(clock utils.Clock) {
	v.rules["print.date"] = Rule{
		Label:    "Date",
		Required: true,
		Validate: func(value string) bool {
			date, err := models.ParseDate(value)
			if err != nil {
				return false
			}
			return !date.After(clock.Now())
		},
		ValidateMessage: "Date must be a valid date and not in the future",
	}
	v.rules["print.qualityRating"] = Rule{
		Label:   "Quality rating",
		Allowed: []string{"excellent", "good", "fair", "poor"},
	}
	v.rules["print.duration"] = Rule{
		Label: "Duration",
		Type:  "number",
		Min:   floatPtr(0),
	}
	v.rules["print.actualWeight"] = Rule{
		Label:    "Actual weight",
		Required: true,
		Type:     "number",
		Min:      floatPtr(0),
	}
	v.rules["print.notes"] = Rule{
		Label:     "Notes",
		MaxLength: intPtr(1000),
	}
}
