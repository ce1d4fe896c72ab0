// Package templates ships the built-in supplier templates. External suppliers
// are loaded from JSON configuration; the ones here are maintained in code
// because they predate the loader and serve as the reference layouts.
package templates

import (
	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/classify"
	"github.com/haakon-okland/invoice-core/internal/entity"
	"github.com/haakon-okland/invoice-core/internal/extract"
)

// Norwegian amount: thousands by dot or space, decimals by comma. The plain
// integer alternative keeps bare figures like "798" parseable.
const nokAmount = `(-?\d{1,3}(?:[ .]\d{3})*(?:,\d{1,2})?|-?\d+(?:[,.]\d+)?)`

const (
	// TeliaKey identifies both the supplier profile and its template.
	TeliaKey = "telia_norge"

	teliaSupplierName = "Telia Norge AS"
)

// TeliaPatterns are the identification patterns seeded into the supplier
// profile. Trained signatures accumulate on top of these.
func TeliaPatterns() []string {
	return []string{
		`(?i)telia norge as`,
		`(?i)fakturanummer:`,
		`(?i)tjenestespesifikasjon for`,
		`(?i)sum denne periode`,
	}
}

// TeliaTemplate is the declarative layout for Telia Norge AS invoices: header
// metadata fields plus the per-subscription service specification block.
func TeliaTemplate() entity.FieldTemplate {
	return entity.FieldTemplate{
		Key: TeliaKey,
		Rules: []entity.FieldRule{
			{
				Name:     constants.FieldSupplierName,
				Patterns: []string{`(` + teliaSupplierName + `)`, `(?i)(telia norge as)`},
				Type:     constants.FieldTypeText,
			},
			{
				Name:     constants.FieldOrgNumber,
				Patterns: []string{`(?i)org(?:\.|anisasjons)?\s*n(?:r|ummer)\.?:?\s*(?:NO\s*)?(\d{3}[ .]?\d{3}[ .]?\d{3})`},
				Type:     constants.FieldTypeIdentifier,
			},
			{
				Name:     constants.FieldInvoiceNumber,
				Patterns: []string{`(?i)fakturanummer:?\s*(\d+)`},
				Type:     constants.FieldTypeIdentifier,
				Required: true,
			},
			{
				Name:     constants.FieldInvoiceDate,
				Patterns: []string{`(?i)fakturadato:?\s*(\d{1,2}\.\d{1,2}\.\d{4})`},
				Type:     constants.FieldTypeDate,
				Required: true,
			},
			{
				Name:     constants.FieldDueDate,
				Patterns: []string{`(?i)forfallsdato:?\s*(\d{1,2}\.\d{1,2}\.\d{4})`},
				Type:     constants.FieldTypeDate,
			},
			{
				Name:     constants.FieldPeriodFrom,
				Patterns: []string{`(?i)periode:?\s*(\d{1,2}\.\d{1,2}\.\d{4})\s*-\s*(\d{1,2}\.\d{1,2}\.\d{4})`},
				Type:     constants.FieldTypeDate,
				Group:    1,
			},
			{
				Name:     constants.FieldPeriodTo,
				Patterns: []string{`(?i)periode:?\s*(\d{1,2}\.\d{1,2}\.\d{4})\s*-\s*(\d{1,2}\.\d{1,2}\.\d{4})`},
				Type:     constants.FieldTypeDate,
				Group:    2,
			},
			{
				// Totals are restated in the payment slip at the bottom, so
				// the last occurrence is authoritative.
				Name:     constants.FieldTotalAmount,
				Patterns: []string{`(?i)å betale:?\s*` + nokAmount, `(?i)totalt:?\s*` + nokAmount},
				Type:     constants.FieldTypeAmount,
				Select:   constants.SelectLast,
				Required: true,
			},
			{
				Name:     constants.FieldNetAmount,
				Patterns: []string{`(?i)netto(?:beløp)?:?\s*` + nokAmount},
				Type:     constants.FieldTypeAmount,
				Select:   constants.SelectLast,
			},
			{
				Name:     constants.FieldVATAmount,
				Patterns: []string{`(?i)(?:mva|merverdiavgift)[^:\n]*:?\s*` + nokAmount},
				Type:     constants.FieldTypeAmount,
				Select:   constants.SelectLast,
			},
			{
				Name:     constants.FieldKID,
				Patterns: []string{`(?i)kid(?:[ .:-])+(\d{4,25})`},
				Type:     constants.FieldTypeIdentifier,
			},
			{
				Name:     constants.FieldAccountNumber,
				Patterns: []string{`(?i)konto(?:nummer)?:?\s*(\d{4}[ .]?\d{2}[ .]?\d{5})`},
				Type:     constants.FieldTypeIdentifier,
			},
		},
		Block: &entity.BlockRule{
			// One anchor per subscription line: "Annlaug Amundsen - 918 54 560".
			// The charged amount follows the phone number on the same line.
			Anchor:        `(?P<name>[A-ZÆØÅÄÖÜ][A-Za-zÆØÅÄÖÜæøåäöüéèàáâîïôûçñ .]+?)\s*[-–—]\s*(?P<phone>\d{3}\s?\d{2}\s?\d{3})`,
			AmountPattern: `^\s*` + nokAmount,
			AmountSelect:  constants.SelectFirst,
			Currency:      "NOK",
		},
	}
}

// RegisterBuiltins registers the built-in templates and seeds their supplier
// profiles. The store may already hold a persisted profile for a built-in
// supplier; in that case only the template is added.
func RegisterBuiltins(store *classify.Store, reg *extract.Registry) error {
	if err := reg.Add(TeliaTemplate()); err != nil {
		return err
	}
	if _, err := store.Get(TeliaKey); err != nil {
		if err := store.Register(TeliaKey, TeliaKey, TeliaPatterns()); err != nil {
			return err
		}
	}
	return nil
}
