package roster

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Column headers accepted in the cost-center workbook, matched
// case-insensitively. Norwegian names first since that is what the
// accounting side exports.
var (
	firstNameHeaders  = []string{"fornavn", "first name", "firstname"}
	lastNameHeaders   = []string{"etternavn", "last name", "lastname"}
	costCenterHeaders = []string{"kostsenter", "cost center", "costcenter"}
	phoneHeaders      = []string{"telefon", "phone", "mobil"}
)

// Load reads the cost-center roster from an XLSX file. The first sheet's
// first row is the header; it must carry first-name, last-name, and
// cost-center columns.
func Load(path string, logger *slog.Logger) ([]entity.RosterEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return parse(f, logger)
}

// LoadReader is Load over an in-memory workbook.
func LoadReader(r io.Reader, logger *slog.Logger) ([]entity.RosterEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parse(f, logger)
}

func parse(f *excelize.File, logger *slog.Logger) ([]entity.RosterEntry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, common.NewAppError("ROSTER_ERROR", "roster workbook is empty", common.ErrInvalidInput)
	}

	header := rows[0]
	firstCol := findColumn(header, firstNameHeaders)
	lastCol := findColumn(header, lastNameHeaders)
	costCol := findColumn(header, costCenterHeaders)
	phoneCol := findColumn(header, phoneHeaders)
	if firstCol < 0 || lastCol < 0 || costCol < 0 {
		return nil, common.NewAppError("ROSTER_ERROR",
			fmt.Sprintf("missing required columns in roster header %v", header), common.ErrInvalidInput)
	}

	entries := make([]entity.RosterEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		first := cell(row, firstCol)
		if first == "" {
			logger.Debug("roster.skip_row", "row", i+2)
			continue
		}
		e := entity.RosterEntry{
			FirstName:  first,
			LastName:   cell(row, lastCol),
			CostCenter: cell(row, costCol),
		}
		if phoneCol >= 0 {
			e.Phone = strings.ReplaceAll(cell(row, phoneCol), " ", "")
		}
		entries = append(entries, e)
	}

	logger.Info("roster.loaded", "sheet", sheet, "entries", len(entries))
	return entries, nil
}

func findColumn(header []string, accepted []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range accepted {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
