package models

import "time"

// EnvelopeVersion tags the current persisted layout. Stores written before
// the envelope existed carry only the bare per-collection keys.
const EnvelopeVersion = "2.0"

const ApplicationName = "spooltrack"

// Envelope is the single versioned document the whole inventory persists
// as. Each collection is additionally mirrored under its own blob key so
// older readers keep working.
type Envelope struct {
	Version   string        `json:"version"`
	LastSaved time.Time     `json:"lastSaved"`
	Filaments []Filament    `json:"filaments"`
	Models    []PrintModel  `json:"models"`
	Prints    []PrintRecord `json:"prints"`
}

// ExportDocument is the interchange format produced by export and accepted
// by import, wrapping the collections with provenance metadata.
type ExportDocument struct {
	Version     string         `json:"version"`
	ExportDate  time.Time      `json:"exportDate"`
	Application string         `json:"application"`
	Data        ExportData     `json:"data"`
	Metadata    ExportMetadata `json:"metadata"`
}

type ExportData struct {
	Filaments []Filament    `json:"filaments"`
	Models    []PrintModel  `json:"models"`
	Prints    []PrintRecord `json:"prints"`
}

type ExportMetadata struct {
	TotalFilaments int      `json:"totalFilaments"`
	TotalModels    int      `json:"totalModels"`
	TotalPrints    int      `json:"totalPrints"`
	MaterialTypes  []string `json:"materialTypes"`
	Brands         []string `json:"brands"`
}
