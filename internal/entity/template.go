package entity

import (
	"github.com/haakon-okland/invoice-core/constants"
)

// FieldTemplate is the declarative, ordered extraction-rule set for one
// supplier's document layout. Templates are data: new suppliers are onboarded
// by adding configuration and training examples, not new code paths.
type FieldTemplate struct {
	Key   string      `json:"key"`
	Rules []FieldRule `json:"rules"`
	// Block describes the recurring per-employee section, if the layout has
	// one. BlockFunc instead names a registered custom block scanner for
	// layouts whose anchor logic is genuinely novel.
	Block     *BlockRule `json:"block,omitempty"`
	BlockFunc string     `json:"block_func,omitempty"`
}

// FieldRule extracts one named field. Patterns are tried in order: the first
// is primary, the rest are fallbacks. Group selects the capture group that
// carries the value (default 1).
type FieldRule struct {
	Name     string                 `json:"name"`
	Patterns []string               `json:"patterns"`
	Type     constants.FieldType    `json:"type"`
	Select   constants.SelectPolicy `json:"select,omitempty"`
	Group    int                    `json:"group,omitempty"`
	Required bool                   `json:"required,omitempty"`
}

// BlockRule drives anchored block extraction. Anchor must define named
// capture groups "name" and (optionally) "phone"; AmountPattern is applied to
// the span between one anchor and the next and must capture the amount in
// group 1.
type BlockRule struct {
	Anchor        string `json:"anchor"`
	AmountPattern string `json:"amount_pattern"`
	AmountSelect  constants.SelectPolicy `json:"amount_select,omitempty"`
	Currency      string `json:"currency,omitempty"`
}
