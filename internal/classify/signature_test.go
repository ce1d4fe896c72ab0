package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const teliaSample = `Telia Norge AS
Fakturanummer: 12345678
Fakturadato: 15.01.2025
Tjenestespesifikasjon for mobilabonnement
Annlaug Amundsen - 918 54 560 798,00
SUM DENNE PERIODE 798,00`

func TestNewSignature_Deterministic(t *testing.T) {
	a := NewSignature(teliaSample)
	b := NewSignature(teliaSample)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, a.Excerpt, b.Excerpt)
}

func TestSimilarity_IdenticalTextScoresOne(t *testing.T) {
	a := NewSignature(teliaSample)
	b := NewSignature(teliaSample)
	assert.Equal(t, 1.0, similarity(a, b))
}

func TestSimilarity_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := NewSignature(teliaSample)
	b := NewSignature("  " + strings.ToUpper(teliaSample) + "\n\n")
	assert.Equal(t, 1.0, similarity(a, b))
}

func TestSimilarity_UnrelatedTextScoresLow(t *testing.T) {
	a := NewSignature(teliaSample)
	b := NewSignature(`Strømregning fra Fjordkraft for januar, målernummer 98765,
forbruk 450 kWh, nettleie og påslag spesifisert per døgn.`)
	assert.Less(t, similarity(a, b), 0.3)
}

func TestSimilarity_SameLayoutDifferentValues(t *testing.T) {
	a := NewSignature(teliaSample)
	b := NewSignature(`Telia Norge AS
Fakturanummer: 87654321
Fakturadato: 15.02.2025
Tjenestespesifikasjon for mobilabonnement
Allan Simonsen - 900 63 358 1.245,50
SUM DENNE PERIODE 1.245,50`)
	// Same layout with different values should still look alike.
	assert.Greater(t, similarity(a, b), 0.5)
}

func TestSimilarity_ShortTokensOnlyIdenticalScoresOne(t *testing.T) {
	// No token survives the length filter, so the fingerprint is empty and
	// only the excerpt can carry the score.
	text := "Abc AS kr 12 34 56"
	a := NewSignature(text)
	b := NewSignature(text)
	assert.Empty(t, a.Fingerprint)
	assert.Equal(t, 1.0, similarity(a, b))
}

func TestSimilarity_ShortTokensOnlyDifferentTextScoresBelowOne(t *testing.T) {
	a := NewSignature("Abc AS kr 12 34 56")
	b := NewSignature("Xyz AS kr 99 88 77")
	assert.Less(t, similarity(a, b), 1.0)
}

func TestFingerprint_DropsShortAndNonLetterTokens(t *testing.T) {
	sig := NewSignature("12345 ab abc Faktura Faktura 798,00")
	assert.Equal(t, "faktura", sig.Fingerprint)
}
