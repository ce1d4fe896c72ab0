package entity

import (
	"time"
)

// SupplierProfile holds everything known about one supplier: its
// identification patterns, the signatures learned from labeled examples, and
// the key of the field template used once a document is classified as this
// supplier. Profiles persist across runs; training appends to them.
type SupplierProfile struct {
	Key         string      `json:"key"`
	TemplateKey string      `json:"template_key"`
	Patterns    []string    `json:"patterns"`
	Signatures  []Signature `json:"signatures"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Signature is the structural fingerprint of one labeled example document,
// plus a raw excerpt kept for fallback similarity. Immutable once stored.
// Duplicates are tolerated: similarity is a max over signatures, so storing
// the same example twice changes nothing.
type Signature struct {
	Fingerprint string    `json:"fingerprint"`
	Excerpt     string    `json:"excerpt"`
	AddedAt     time.Time `json:"added_at"`
}

// Clone returns a deep copy so snapshot readers are unaffected by later
// training writes.
func (p *SupplierProfile) Clone() SupplierProfile {
	cp := *p
	cp.Patterns = append([]string(nil), p.Patterns...)
	cp.Signatures = append([]Signature(nil), p.Signatures...)
	return cp
}
