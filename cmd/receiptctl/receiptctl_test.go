package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"receipts/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagRates, flagInvoices, flagCurrency, flagOutDir = "", "", string(core.AUD), "."

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConvert(t *testing.T) {
	out, err := run(t, "convert", "100", "usd", "EUR")
	require.NoError(t, err)
	assert.Contains(t, out, "$100.00 USD = €92.00 EUR")
	assert.Contains(t, out, "rate 0.92")
}

func TestConvertWithRatesFile(t *testing.T) {
	rates := writeFile(t, "rates.toml", "[rates]\nEUR = 0.5\n")

	out, err := run(t, "convert", "--rates", rates, "10", "EUR", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "$20.00 USD")
}

func TestConvertRejectsBadInput(t *testing.T) {
	_, err := run(t, "convert", "abc", "USD", "EUR")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = run(t, "convert", "1", "USD", "XYZ")
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)
}

func TestRates(t *testing.T) {
	out, err := run(t, "rates")
	require.NoError(t, err)
	assert.Contains(t, out, "Exchange rates (per 1 USD)")
	assert.Contains(t, out, "150.2500")
}

func TestRatesFileRejectsBaseRate(t *testing.T) {
	rates := writeFile(t, "rates.toml", "[rates]\nUSD = 2\n")

	_, err := run(t, "rates", "--rates", rates)
	assert.ErrorIs(t, err, core.ErrInvalidRate)
}

func TestReport(t *testing.T) {
	invoices := writeFile(t, "invoices.json", `[
		{"date": "2024-03-02", "amount": 92, "currency": "EUR", "category": "Meal", "merchant": "Bistro"},
		{"date": "2024-03-01", "amount": 10, "currency": "USD", "category": "Transport", "merchant": "Metro", "file_name": "metro.jpg"}
	]`)
	dir := t.TempDir()

	out, err := run(t, "report", "--invoices", invoices, "--currency", "USD", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Total (2 invoices):")
	assert.Contains(t, out, "$110.00 USD")

	files, err := filepath.Glob(filepath.Join(dir, "expense_report_USD_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := excelize.OpenFile(files[0])
	require.NoError(t, err)
	defer f.Close()

	first, err := f.GetCellValue(core.ReportSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-0002", first)
	merchant, err := f.GetCellValue(core.ReportSheetName, "E3")
	require.NoError(t, err)
	assert.Equal(t, "Metro", merchant)
}

func TestReportRejectsUnknownCategory(t *testing.T) {
	invoices := writeFile(t, "invoices.json", `[{"date": "2024-03-01", "amount": 1, "currency": "USD", "category": "Golf"}]`)

	_, err := run(t, "report", "--invoices", invoices, "--out", t.TempDir())
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestReportEmptyList(t *testing.T) {
	invoices := writeFile(t, "invoices.json", `[]`)
	dir := t.TempDir()

	out, err := run(t, "report", "--invoices", invoices, "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No invoices to report")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
