package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakon-okland/invoice-core/internal/common"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"798", "798"},
		{"798,00", "798"},
		{"1.234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"12.345.678,90", "12345678.9"},
		{"-450,25", "-450.25"},
		{"kr 798,00", "798"},
		{"798,005", "798.01"}, // rounded to currency precision
	}
	for _, tc := range tests {
		d, err := ParseAmount(tc.raw)
		require.NoError(t, err, "amount %q", tc.raw)
		assert.Equal(t, tc.want, d.String(), "amount %q", tc.raw)
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "ingen sum", "-", "1.2.3,4,5"} {
		_, err := ParseAmount(raw)
		require.Error(t, err, "amount %q", raw)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"15.01.2025", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"3.2.2025", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"15/01/2025", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15-01-2025", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{" 15.01.2025 ", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.raw)
		require.NoError(t, err, "date %q", tc.raw)
		assert.True(t, got.Equal(tc.want), "date %q: got %v", tc.raw, got)
	}
}

func TestParseDate_DayFirstNotAmbiguous(t *testing.T) {
	// 02.03.2025 is March 2nd, never February 3rd.
	got, err := ParseDate("02.03.2025")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestParseDate_Malformed(t *testing.T) {
	for _, raw := range []string{"", "2025", "15.01", "31.02.2025", "aa.bb.cccc"} {
		_, err := ParseDate(raw)
		require.Error(t, err, "date %q", raw)
	}
}
