package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(common.ValidationConfig{}, nil)
	require.NoError(t, err)
	return v
}

func amount(s string) entity.FieldValue {
	return entity.FieldValue{Kind: constants.FieldTypeAmount, Amount: decimal.RequireFromString(s)}
}

func date(y int, m time.Month, d int) entity.FieldValue {
	return entity.FieldValue{Kind: constants.FieldTypeDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func matchedLine(s string) entity.LineRecord {
	return entity.LineRecord{Amount: decimal.RequireFromString(s), Status: constants.MatchStatusMatched}
}

func cleanResult() *entity.ExtractionResult {
	return &entity.ExtractionResult{
		Fields: map[string]entity.FieldValue{
			constants.FieldTotalAmount: amount("2043.50"),
			constants.FieldInvoiceDate: date(2025, time.January, 15),
			constants.FieldDueDate:     date(2025, time.January, 30),
			constants.FieldPeriodFrom:  date(2025, time.January, 1),
			constants.FieldPeriodTo:    date(2025, time.January, 31),
		},
		Lines: []entity.LineRecord{
			matchedLine("798.00"),
			matchedLine("1245.50"),
		},
	}
}

func TestValidate_CleanResultNoFlags(t *testing.T) {
	v := newValidator(t)
	assert.Empty(t, v.Validate(cleanResult()))
}

func TestValidate_TotalMismatch(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Fields[constants.FieldTotalAmount] = amount("2100.00")

	flags := v.Validate(res)
	require.Len(t, flags, 1)
	assert.Equal(t, constants.FlagTotalMismatch, flags[0].Code)
}

func TestValidate_TotalWithinEpsilon(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	// One øre off: inside the 0.01 tolerance.
	res.Fields[constants.FieldTotalAmount] = amount("2043.51")
	assert.Empty(t, v.Validate(res))
}

func TestValidate_TotalSkippedWithoutLines(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Lines = nil
	assert.Empty(t, v.Validate(res))
}

func TestValidate_DueBeforeInvoiceDate(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Fields[constants.FieldDueDate] = date(2025, time.January, 10)

	flags := v.Validate(res)
	require.Len(t, flags, 1)
	assert.Equal(t, constants.FlagDateOrder, flags[0].Code)
}

func TestValidate_PeriodReversed(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Fields[constants.FieldPeriodFrom] = date(2025, time.February, 1)

	flags := v.Validate(res)
	require.Len(t, flags, 1)
	assert.Equal(t, constants.FlagDateOrder, flags[0].Code)
}

func TestValidate_MissingDatesSkipped(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	delete(res.Fields, constants.FieldDueDate)
	assert.Empty(t, v.Validate(res))
}

func TestValidate_LowMatchRate(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Lines = append(res.Lines,
		entity.LineRecord{Amount: decimal.RequireFromString("100.00"), Status: constants.MatchStatusUnmatched},
	)
	res.Fields[constants.FieldTotalAmount] = amount("2143.50")

	flags := v.Validate(res)
	require.Len(t, flags, 1)
	assert.Equal(t, constants.FlagLowMatchRate, flags[0].Code)
}

func TestValidate_ChecksAreIndependent(t *testing.T) {
	v := newValidator(t)
	res := cleanResult()
	res.Fields[constants.FieldTotalAmount] = amount("9999.99")
	res.Fields[constants.FieldDueDate] = date(2024, time.December, 1)
	res.Lines[1].Status = constants.MatchStatusUnmatched

	flags := v.Validate(res)
	require.Len(t, flags, 3)
	codes := map[string]bool{}
	for _, f := range flags {
		codes[f.Code] = true
	}
	assert.True(t, codes[constants.FlagTotalMismatch])
	assert.True(t, codes[constants.FlagDateOrder])
	assert.True(t, codes[constants.FlagLowMatchRate])
}

func TestNewValidator_BadEpsilon(t *testing.T) {
	_, err := NewValidator(common.ValidationConfig{AmountEpsilon: "not-a-number"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
