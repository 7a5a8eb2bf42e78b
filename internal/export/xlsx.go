// Package export writes expense reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"receipts/internal/core"
)

const defaultSheet = "Sheet1"

// WriteReport renders r as a single-sheet workbook into w. Numbers are written
// as numeric cells at full precision; only the display format is rounded.
func WriteReport(w io.Writer, r core.Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveReport writes the workbook into dir under the standard export name and
// returns the full path.
func SaveReport(dir string, r core.Report, now time.Time) (string, error) {
	path := filepath.Join(dir, core.ExportFileName(r.Currency, now))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteReport(out, r); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func build(r core.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := core.ReportSheetName
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	table := r.Table()
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := decorate(f, sheet, len(table)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// decorate applies column widths and number formats. The last row is the
// totals row.
func decorate(f *excelize.File, sheet string, rows int) error {
	if err := f.SetColWidth(sheet, "A", "I", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "I1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if rows < 4 {
		return nil
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	rate, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("0.0000")})
	if err != nil {
		return fmt.Errorf("rate style: %w", err)
	}
	lastInvoice := rows - 2
	if err := f.SetCellStyle(sheet, "F2", fmt.Sprintf("F%d", lastInvoice), money); err != nil {
		return fmt.Errorf("apply amount style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "H2", fmt.Sprintf("H%d", lastInvoice), rate); err != nil {
		return fmt.Errorf("apply rate style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "I2", fmt.Sprintf("I%d", rows), money); err != nil {
		return fmt.Errorf("apply converted style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("D%d", rows), fmt.Sprintf("I%d", rows), totalStyle)
}

func strPtr(s string) *string { return &s }
