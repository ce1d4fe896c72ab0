package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Service produces workbook bytes summarizing a batch of extraction results,
// one row per resolved line record.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportLinesXLSX returns an XLSX workbook (as bytes) with every line record
// from the given results, in input order.
func (s *Service) ExportLinesXLSX(results []*entity.ExtractionResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Lines"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Source File",
		"Supplier",
		"Name (raw)",
		"First Name",
		"Last Name",
		"Cost Center",
		"Phone",
		"Amount",
		"Currency",
		"Match Status",
		"Match Score",
		"Note",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	rows := 0
	for _, res := range results {
		for _, line := range res.Lines {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}

			write(1, res.SourceFile)
			write(2, res.SupplierKey)
			write(3, truncate(line.RawName, 80))

			if line.Resolved != nil {
				write(4, line.Resolved.FirstName)
				write(5, line.Resolved.LastName)
				write(6, line.Resolved.CostCenter)
			}

			write(7, line.Phone)
			write(8, line.Amount.StringFixed(2))
			write(9, line.Currency)
			write(10, string(line.Status))
			write(11, fmt.Sprintf("%.2f", line.MatchScore))
			write(12, truncate(line.Note, 140))

			row++
			rows++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // source file
	_ = f.SetColWidth(sheet, "B", "B", 18) // supplier
	_ = f.SetColWidth(sheet, "C", "C", 28) // raw name
	_ = f.SetColWidth(sheet, "D", "F", 16) // resolved fields
	_ = f.SetColWidth(sheet, "G", "G", 14) // phone
	_ = f.SetColWidth(sheet, "H", "H", 12) // amount
	_ = f.SetColWidth(sheet, "J", "J", 14) // status
	_ = f.SetColWidth(sheet, "L", "L", 40) // note

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(results),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
