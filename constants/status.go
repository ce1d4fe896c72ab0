package constants

// MatchStatus is the canonical resolution status for a line record.
type MatchStatus string

// Stable values (downstream accounting consumers bind to these exact strings).
const (
	MatchStatusMatched   MatchStatus = "MATCHED"   // exactly one roster entry cleared the threshold
	MatchStatusUnmatched MatchStatus = "UNMATCHED" // no roster entry cleared the threshold
	MatchStatusAmbiguous MatchStatus = "AMBIGUOUS" // near-tie between candidates, needs manual review
)

// DocumentStatus is the classification outcome for one processed document.
type DocumentStatus string

const (
	DocumentStatusClassified DocumentStatus = "CLASSIFIED"  // one supplier above threshold
	DocumentStatusNoSupplier DocumentStatus = "NO_SUPPLIER" // nothing above threshold; not an error
	DocumentStatusAmbiguous  DocumentStatus = "AMBIGUOUS"   // top suppliers within the tie margin
)
