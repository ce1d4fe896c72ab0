package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haakon-okland/invoice-core/internal/common"
)

var (
	amountJunk = regexp.MustCompile(`[^\d,.\-]`)
	dateSplit  = regexp.MustCompile(`[./\-]`)
)

// ParseAmount normalizes a locale-formatted amount before any arithmetic:
// comma as decimal separator, dot or space as thousands separator.
//
//	"1.234,56" -> 1234.56
//	"1 234,56" -> 1234.56
//	"1234,56"  -> 1234.56
//	"1,234.56" -> 1234.56
//
// Malformed input returns an error for the caller to record as a field-level
// parse failure; it must never abort extraction.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := amountJunk.ReplaceAllString(raw, "")
	if s == "" || s == "-" {
		return decimal.Zero, common.NewAppError("PARSE_ERROR",
			fmt.Sprintf("no digits in amount %q", raw), common.ErrInvalidInput)
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// Whichever separator comes last is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewAppError("PARSE_ERROR",
			fmt.Sprintf("unparseable amount %q", raw), common.ErrInvalidInput)
	}
	return d.Round(2), nil
}

// ParseDate normalizes day-first dates (d.m.yyyy, with ".", "/" or "-" as
// separator) to an unambiguous UTC date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	parts := dateSplit.Split(s, -1)
	if len(parts) != 3 {
		return time.Time{}, common.NewAppError("PARSE_ERROR",
			fmt.Sprintf("unparseable date %q", raw), common.ErrInvalidInput)
	}
	normalized := pad2(parts[0]) + "." + pad2(parts[1]) + "." + parts[2]
	t, err := time.ParseInLocation("02.01.2006", normalized, time.UTC)
	if err != nil {
		return time.Time{}, common.NewAppError("PARSE_ERROR",
			fmt.Sprintf("unparseable date %q", raw), common.ErrInvalidInput)
	}
	return t, nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
