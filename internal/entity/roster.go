package entity

import "strings"

// RosterEntry maps one person to a cost center. Loaded from the external
// cost-center workbook; read-only during a run.
type RosterEntry struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	CostCenter string `json:"cost_center"`
	Phone      string `json:"phone,omitempty"`
}

// FullName joins first and last name with a single space.
func (r RosterEntry) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
