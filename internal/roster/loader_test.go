package roster

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/haakon-okland/invoice-core/internal/common"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadReader(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Fornavn", "Etternavn", "Kostsenter", "Telefon"},
		{"Annlaug", "Amundsen", 1001, "918 54 560"},
		{"Andreas", "Hansen", 1002, "920 78 335"},
		{"Allan", "Simonsen", 1003, ""},
	})

	entries, err := LoadReader(buf, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Annlaug", entries[0].FirstName)
	assert.Equal(t, "Amundsen", entries[0].LastName)
	assert.Equal(t, "1001", entries[0].CostCenter)
	assert.Equal(t, "91854560", entries[0].Phone)
	assert.Empty(t, entries[2].Phone)
}

func TestLoadReader_HeaderAliasesAndCase(t *testing.T) {
	buf := workbook(t, [][]any{
		{"First Name", "LASTNAME", " kostsenter ", "Mobil"},
		{"Erik", "Johansson", 1004, "911 00 000"},
	})

	entries, err := LoadReader(buf, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1004", entries[0].CostCenter)
	assert.Equal(t, "91100000", entries[0].Phone)
}

func TestLoadReader_SkipsRowsWithoutFirstName(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Fornavn", "Etternavn", "Kostsenter"},
		{"Lars", "Nielsen", 1005},
		{"", "Tom rad", 9999},
		{"Kari", "Normann", 1006},
	})

	entries, err := LoadReader(buf, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Lars", entries[0].FirstName)
	assert.Equal(t, "Kari", entries[1].FirstName)
}

func TestLoadReader_MissingRequiredColumn(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Fornavn", "Etternavn", "Avdeling"},
		{"Lars", "Nielsen", "Salg"},
	})

	_, err := LoadReader(buf, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestLoadReader_PreservesRowOrder(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Fornavn", "Etternavn", "Kostsenter"},
		{"Zara", "Zimmer", 3},
		{"Anna", "Aas", 1},
		{"Mona", "Moe", 2},
	})

	entries, err := LoadReader(buf, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Zara", entries[0].FirstName)
	assert.Equal(t, "Anna", entries[1].FirstName)
	assert.Equal(t, "Mona", entries[2].FirstName)
}
