package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"receipts/internal/cli"
	"receipts/internal/core"
	"receipts/internal/export"
	"receipts/internal/storage"
)

var (
	flagInvoices string
	flagCurrency string
	flagOutDir   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize an invoice list and write the XLSX report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagInvoices, "invoices", "i", "", "JSON file with the invoice list (newest first)")
	reportCmd.Flags().StringVarP(&flagCurrency, "currency", "c", string(core.AUD), "Reporting currency")
	reportCmd.Flags().StringVarP(&flagOutDir, "out", "o", ".", "Directory for the XLSX report")
	_ = reportCmd.MarkFlagRequired("invoices")
	rootCmd.AddCommand(reportCmd)
}

// invoiceRecord is one entry of the invoice list file.
type invoiceRecord struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Category string  `json:"category"`
	Merchant string  `json:"merchant"`
	FileName string  `json:"file_name,omitempty"`
}

// loadInvoices reads the list into a fresh invoice book. Numbers are
// reassigned so the last entry of the file becomes INV-0001 and the book
// keeps the file order.
func loadInvoices(ctx context.Context, path string) ([]core.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read invoices: %w", err)
	}
	var records []invoiceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode invoices %s: %w", path, err)
	}

	book := storage.NewInvoiceBook()
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		currency, err := core.ParseCurrency(rec.Currency)
		if err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i+1, err)
		}
		category, err := core.ParseCategory(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i+1, err)
		}
		if _, err := book.Create(ctx, core.InvoiceFields{
			Date:     rec.Date,
			Amount:   rec.Amount,
			Currency: currency,
			Category: category,
			Merchant: rec.Merchant,
			FileName: rec.FileName,
		}); err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i+1, err)
		}
	}
	return book.Snapshot(), nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	reporting, err := core.ParseCurrency(flagCurrency)
	if err != nil {
		return fmt.Errorf("%s: %w", flagCurrency, err)
	}
	rates, err := loadRates()
	if err != nil {
		return err
	}
	invoices, err := loadInvoices(cmd.Context(), flagInvoices)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary, ok := core.Summarize(invoices, reporting, rates)
	if !ok {
		fmt.Fprintln(out, "\n  No invoices to report.")
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderSummary(summary))

	path, err := export.SaveReport(flagOutDir, core.BuildReport(invoices, reporting, rates), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n  Report written to %s\n", path)
	return nil
}
