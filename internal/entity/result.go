package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haakon-okland/invoice-core/constants"
)

// ExtractionResult is the accounting-ready record produced for one document.
// One is produced for every document processed, successfully or not; "I don't
// know" is representable (empty SupplierKey, flags) and never collapses into
// a false positive. Never mutated after validation completes.
type ExtractionResult struct {
	ID          uuid.UUID                `json:"id"`
	SourceFile  string                   `json:"source_file,omitempty"`
	Status      constants.DocumentStatus `json:"status"`
	SupplierKey string                   `json:"supplier_key,omitempty"`
	Confidence  float64                  `json:"confidence"`
	// Scores carries the per-supplier detection scores for auditability.
	Scores map[string]float64 `json:"scores,omitempty"`

	Fields      map[string]FieldValue `json:"fields"`
	Lines       []LineRecord          `json:"lines"`
	FieldErrors []FieldError          `json:"field_errors,omitempty"`
	Flags       []Flag                `json:"flags,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// FieldValue is one extracted field: the raw matched text plus the typed
// value for its kind, and the extraction confidence (primary pattern hits
// score higher than fallbacks).
type FieldValue struct {
	Raw        string              `json:"raw"`
	Kind       constants.FieldType `json:"kind"`
	Text       string              `json:"text,omitempty"`
	Amount     decimal.Decimal     `json:"amount,omitempty"`
	Date       time.Time           `json:"date,omitzero"`
	Confidence float64             `json:"confidence"`
}

// LineRecord is one recurring sub-entry, typically one employee's charge.
type LineRecord struct {
	RawName    string                `json:"raw_name"`
	Phone      string                `json:"phone,omitempty"`
	Amount     decimal.Decimal       `json:"amount"`
	Currency   string                `json:"currency,omitempty"`
	Correction bool                  `json:"correction,omitempty"`
	Page       int                   `json:"page"`
	Line       int                   `json:"line"`
	Resolved   *RosterEntry          `json:"resolved,omitempty"`
	MatchScore float64               `json:"match_score"`
	Status     constants.MatchStatus `json:"match_status"`
	Note       string                `json:"note,omitempty"`
}

// FieldError records a per-field failure (pattern absent on a required field,
// value that would not parse). It never aborts the rest of extraction.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Flag is one discrepancy surfaced by validation. The result stays fully
// usable; flags report, they never suppress data.
type Flag struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
