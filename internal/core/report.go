package core

import (
	"fmt"
	"time"
)

const (
	// ReportSheetName is the worksheet name used for exported reports.
	ReportSheetName = "Expenses"
	// TotalLabel is written in the category column of the totals row.
	TotalLabel = "Total Sum"
	// MissingFileName stands in for invoices recorded without a file.
	MissingFileName = "N/A"

	reportColumns = 9
	// column indexes within a report table row
	colCategory  = 3
	colConverted = 8
)

// ReportRow is one invoice line of an expense report.
type ReportRow struct {
	InvoiceNumber   string   `json:"invoice_number"`
	FileName        string   `json:"file_name"`
	Date            string   `json:"date"`
	Category        Category `json:"category"`
	Merchant        string   `json:"merchant"`
	OriginalAmount  float64  `json:"original_amount"`
	Currency        Currency `json:"currency"`
	ExchangeRate    float64  `json:"exchange_rate"`
	ConvertedAmount float64  `json:"converted_amount"`
}

// Report is the tabular export of an invoice list in a reporting currency.
type Report struct {
	Currency Currency    `json:"currency"`
	Rows     []ReportRow `json:"rows"`
	Total    float64     `json:"total"`
}

// BuildReport lays out one row per invoice in the given order. The exchange
// rate column is rounded for audit display, while converted amounts are
// computed at full precision straight from the rate table.
func BuildReport(invoices []Invoice, reporting Currency, rates RateTable) Report {
	r := Report{
		Currency: reporting,
		Rows:     make([]ReportRow, 0, len(invoices)),
		Total:    GrandTotal(invoices, reporting, rates),
	}
	for _, inv := range invoices {
		name := inv.FileName
		if name == "" {
			name = MissingFileName
		}
		r.Rows = append(r.Rows, ReportRow{
			InvoiceNumber:   inv.InvoiceNumber,
			FileName:        name,
			Date:            inv.Date,
			Category:        inv.Category,
			Merchant:        inv.Merchant,
			OriginalAmount:  inv.Amount,
			Currency:        inv.Currency,
			ExchangeRate:    RoundRate(EffectiveRate(inv.Currency, reporting, rates)),
			ConvertedAmount: Convert(inv.Amount, inv.Currency, reporting, rates),
		})
	}
	return r
}

// Header returns the nine column titles of the report.
func (r Report) Header() []string {
	return []string{
		"Invoice Number",
		"File Name",
		"Date",
		"Expense Category",
		"Merchant",
		"Original Amount",
		"Currency",
		"Exchange Rate",
		fmt.Sprintf("Converted Amount (%s)", r.Currency),
	}
}

// Table returns the full sheet contents: header, invoice rows, a blank spacer
// row and the totals row.
func (r Report) Table() [][]any {
	out := make([][]any, 0, len(r.Rows)+3)

	header := make([]any, 0, reportColumns)
	for _, h := range r.Header() {
		header = append(header, h)
	}
	out = append(out, header)

	for _, row := range r.Rows {
		out = append(out, []any{
			row.InvoiceNumber,
			row.FileName,
			row.Date,
			string(row.Category),
			row.Merchant,
			row.OriginalAmount,
			string(row.Currency),
			row.ExchangeRate,
			row.ConvertedAmount,
		})
	}

	out = append(out, blankRow())

	totals := blankRow()
	totals[colCategory] = TotalLabel
	totals[colConverted] = r.Total
	out = append(out, totals)
	return out
}

func blankRow() []any {
	row := make([]any, reportColumns)
	for i := range row {
		row[i] = ""
	}
	return row
}

// ExportFileName derives the workbook name from the reporting currency and the
// export date (UTC).
func ExportFileName(reporting Currency, now time.Time) string {
	return fmt.Sprintf("expense_report_%s_%s.xlsx", reporting, now.UTC().Format(DateLayout))
}
