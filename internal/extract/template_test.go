package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

func validTemplate() entity.FieldTemplate {
	return entity.FieldTemplate{
		Key: "test",
		Rules: []entity.FieldRule{
			{Name: "invoice_number", Patterns: []string{`Fakturanummer:\s*(\d+)`}, Type: constants.FieldTypeIdentifier},
		},
	}
}

func TestNewTemplate_Valid(t *testing.T) {
	tmpl, err := NewTemplate(validTemplate())
	require.NoError(t, err)
	assert.Equal(t, "test", tmpl.Key)
}

func TestNewTemplate_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.FieldTemplate)
	}{
		{"missing key", func(d *entity.FieldTemplate) { d.Key = "" }},
		{"no rules", func(d *entity.FieldTemplate) { d.Rules = nil }},
		{"rule without name", func(d *entity.FieldTemplate) { d.Rules[0].Name = "" }},
		{"rule without patterns", func(d *entity.FieldTemplate) { d.Rules[0].Patterns = nil }},
		{"invalid regex", func(d *entity.FieldTemplate) { d.Rules[0].Patterns = []string{`(unclosed`} }},
		{"unknown type", func(d *entity.FieldTemplate) { d.Rules[0].Type = "BLOB" }},
		{"capture group out of range", func(d *entity.FieldTemplate) { d.Rules[0].Group = 3 }},
		{"pattern without capture group", func(d *entity.FieldTemplate) { d.Rules[0].Patterns = []string{`Fakturanummer`} }},
		{"highest on non-amount", func(d *entity.FieldTemplate) {
			d.Rules[0].Select = constants.SelectHighest
		}},
		{"unknown select policy", func(d *entity.FieldTemplate) { d.Rules[0].Select = "NEWEST" }},
		{"duplicate field name", func(d *entity.FieldTemplate) {
			d.Rules = append(d.Rules, d.Rules[0])
		}},
		{"block and block_func together", func(d *entity.FieldTemplate) {
			d.Block = &entity.BlockRule{Anchor: `(?P<name>\w+)`, AmountPattern: `(\d+)`}
			d.BlockFunc = "custom"
		}},
		{"block anchor without name group", func(d *entity.FieldTemplate) {
			d.Block = &entity.BlockRule{Anchor: `\w+ - \d+`, AmountPattern: `(\d+)`}
		}},
		{"block amount without capture group", func(d *entity.FieldTemplate) {
			d.Block = &entity.BlockRule{Anchor: `(?P<name>\w+)`, AmountPattern: `\d+`}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := validTemplate()
			tc.mutate(&def)
			_, err := NewTemplate(def)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestNewTemplate_DefaultPolicies(t *testing.T) {
	def := entity.FieldTemplate{
		Key: "defaults",
		Rules: []entity.FieldRule{
			{Name: "total", Patterns: []string{`Totalt:\s*(\d+)`}, Type: constants.FieldTypeAmount},
			{Name: "number", Patterns: []string{`Nr:\s*(\d+)`}, Type: constants.FieldTypeIdentifier},
		},
	}
	tmpl, err := NewTemplate(def)
	require.NoError(t, err)
	assert.Equal(t, constants.SelectLast, tmpl.rules[0].policy)
	assert.Equal(t, constants.SelectFirst, tmpl.rules[1].policy)
}

func TestRegistry_BlockFuncResolution(t *testing.T) {
	reg := NewRegistry()

	def := validTemplate()
	def.BlockFunc = "custom"
	require.Error(t, reg.Add(def), "unregistered block func must be rejected")

	require.NoError(t, reg.RegisterBlockFunc("custom", func(string, *Locator) []entity.LineRecord { return nil }))
	require.NoError(t, reg.Add(def))

	tmpl, err := reg.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, tmpl.blockFn)
}

func TestRegistry_DuplicateKeyRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(validTemplate()))
	require.Error(t, reg.Add(validTemplate()))
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry().Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
