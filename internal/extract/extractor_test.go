package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

const sampleInvoice = `Telia Norge AS Org.nr: 981 929 055
Fakturanummer: 12345678
Fakturadato: 15.01.2025
Forfallsdato: 30.01.2025
Periode: 01.01.2025 - 31.01.2025
Tjenestespesifikasjon for mobilabonnement
Annlaug Amundsen - 918 54 560 798,00
Ks Andreas . - 920 78 335 1.245,50
Allan Simonsen - 900 63 358 -150,00
Å betale: 2.500,00
Totalt: 1.893,50
Å betale: 1.893,50`

func sampleTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := NewTemplate(entity.FieldTemplate{
		Key: "sample",
		Rules: []entity.FieldRule{
			{Name: constants.FieldInvoiceNumber, Patterns: []string{`Fakturanummer:\s*(\d+)`}, Type: constants.FieldTypeIdentifier, Required: true},
			{Name: constants.FieldInvoiceDate, Patterns: []string{`Fakturadato:\s*(\d{2}\.\d{2}\.\d{4})`}, Type: constants.FieldTypeDate},
			{Name: constants.FieldDueDate, Patterns: []string{`Forfallsdato:\s*(\d{2}\.\d{2}\.\d{4})`}, Type: constants.FieldTypeDate},
			{Name: constants.FieldPeriodFrom, Patterns: []string{`Periode:\s*(\d{2}\.\d{2}\.\d{4})\s*-\s*(\d{2}\.\d{2}\.\d{4})`}, Type: constants.FieldTypeDate, Group: 1},
			{Name: constants.FieldPeriodTo, Patterns: []string{`Periode:\s*(\d{2}\.\d{2}\.\d{4})\s*-\s*(\d{2}\.\d{2}\.\d{4})`}, Type: constants.FieldTypeDate, Group: 2},
			{Name: constants.FieldTotalAmount, Patterns: []string{`Å betale:\s*([\d.,]+)`}, Type: constants.FieldTypeAmount, Select: constants.SelectLast, Required: true},
			{Name: constants.FieldKID, Patterns: []string{`KID:\s*(\d+)`}, Type: constants.FieldTypeIdentifier, Required: true},
		},
		Block: &entity.BlockRule{
			Anchor:        `(?P<name>[A-ZÆØÅ][A-Za-zæøå .]+?)\s*-\s*(?P<phone>\d{3}\s\d{2}\s\d{3})`,
			AmountPattern: `^\s*(-?[\d.,]+)`,
			AmountSelect:  constants.SelectFirst,
			Currency:      "NOK",
		},
	})
	require.NoError(t, err)
	return tmpl
}

func TestExtract_FieldsAndBlocks(t *testing.T) {
	e := NewExtractor(nil)
	doc := entity.NewDocument("invoice.txt", sampleInvoice)

	res := e.Extract(doc, sampleTemplate(t))

	num := res.Fields[constants.FieldInvoiceNumber]
	assert.Equal(t, "12345678", num.Text)
	assert.Equal(t, 1.0, num.Confidence)

	assert.Equal(t, "2025-01-15", res.Fields[constants.FieldInvoiceDate].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-01-30", res.Fields[constants.FieldDueDate].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-01-01", res.Fields[constants.FieldPeriodFrom].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-01-31", res.Fields[constants.FieldPeriodTo].Date.Format("2006-01-02"))

	// LAST policy: the restated payment-slip figure wins over the first one.
	assert.Equal(t, "1893.5", res.Fields[constants.FieldTotalAmount].Amount.String())

	require.Len(t, res.Lines, 3)
	assert.Equal(t, "Annlaug Amundsen", res.Lines[0].RawName)
	assert.Equal(t, "91854560", res.Lines[0].Phone)
	assert.Equal(t, "798", res.Lines[0].Amount.String())
	assert.Equal(t, "NOK", res.Lines[0].Currency)
	assert.Equal(t, 7, res.Lines[0].Line)
	assert.Equal(t, 1, res.Lines[0].Page)

	assert.Equal(t, "Ks Andreas .", res.Lines[1].RawName)
	assert.Equal(t, "1245.5", res.Lines[1].Amount.String())

	// Negative amounts are corrections, kept as-is.
	assert.True(t, res.Lines[2].Correction)
	assert.Equal(t, "-150", res.Lines[2].Amount.String())
}

func TestExtract_RequiredFieldMissing(t *testing.T) {
	e := NewExtractor(nil)
	doc := entity.NewDocument("invoice.txt", sampleInvoice)

	res := e.Extract(doc, sampleTemplate(t))

	// KID is required but absent: recorded per field, extraction continues.
	require.Len(t, res.FieldErrors, 1)
	assert.Equal(t, constants.FieldKID, res.FieldErrors[0].Field)
	assert.NotContains(t, res.Fields, constants.FieldKID)
	assert.NotEmpty(t, res.Fields)
}

func TestExtract_FallbackPatternConfidence(t *testing.T) {
	tmpl, err := NewTemplate(entity.FieldTemplate{
		Key: "fallback",
		Rules: []entity.FieldRule{
			{
				Name:     constants.FieldTotalAmount,
				Patterns: []string{`Å betale:\s*([\d.,]+)`, `Sum:\s*([\d.,]+)`},
				Type:     constants.FieldTypeAmount,
			},
		},
	})
	require.NoError(t, err)

	e := NewExtractor(nil)
	res := e.Extract(entity.NewDocument("x.txt", "Sum: 500,00"), tmpl)

	v := res.Fields[constants.FieldTotalAmount]
	assert.Equal(t, "500", v.Amount.String())
	assert.InDelta(t, 0.8, v.Confidence, 1e-9)
}

func TestExtract_SelectHighest(t *testing.T) {
	tmpl, err := NewTemplate(entity.FieldTemplate{
		Key: "highest",
		Rules: []entity.FieldRule{
			{
				Name:     constants.FieldTotalAmount,
				Patterns: []string{`Sum:\s*([\d.,]+)`},
				Type:     constants.FieldTypeAmount,
				Select:   constants.SelectHighest,
			},
		},
	})
	require.NoError(t, err)

	e := NewExtractor(nil)
	res := e.Extract(entity.NewDocument("x.txt", "Sum: 500,00\nSum: 1.200,00\nSum: 300,00"), tmpl)
	assert.Equal(t, "1200", res.Fields[constants.FieldTotalAmount].Amount.String())
}

func TestExtract_BlockWithoutAmountKeepsRecord(t *testing.T) {
	tmpl, err := NewTemplate(entity.FieldTemplate{
		Key: "noamount",
		Rules: []entity.FieldRule{
			{Name: constants.FieldInvoiceNumber, Patterns: []string{`Nr:\s*(\d+)`}, Type: constants.FieldTypeIdentifier},
		},
		Block: &entity.BlockRule{
			Anchor:        `(?P<name>\w+ \w+)\s*-\s*(?P<phone>\d{8})`,
			AmountPattern: `^\s*kr\s*([\d.,]+)`,
		},
	})
	require.NoError(t, err)

	e := NewExtractor(nil)
	res := e.Extract(entity.NewDocument("x.txt", "Nr: 1\nKari Normann - 91500000 uten sum"), tmpl)

	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Amount.IsZero())
	assert.NotEmpty(t, res.Lines[0].Note)
}

func TestLocator_PagesAndLines(t *testing.T) {
	text := "first page line one\nline two\fsecond page line one\nline two"
	loc := NewLocator(text)

	page, line := loc.Locate(0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, line)

	page, line = loc.Locate(len("first page line one\n") + 2)
	assert.Equal(t, 1, page)
	assert.Equal(t, 2, line)

	secondPage := len("first page line one\nline two\f")
	page, line = loc.Locate(secondPage)
	assert.Equal(t, 2, page)
	assert.Equal(t, 1, line)

	page, line = loc.Locate(len(text) - 1)
	assert.Equal(t, 2, page)
	assert.Equal(t, 2, line)
}
