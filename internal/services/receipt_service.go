package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"receipts/internal/core"
	"receipts/internal/log"
	"receipts/internal/storage"
)

type (
	// Recognizer extracts receipt fields from an uploaded file.
	Recognizer interface {
		Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error)
	}

	// ReportPublisher announces exported reports to the mirror worker.
	ReportPublisher interface {
		PublishReport(ctx context.Context, fileName string, r core.Report) error
	}
)

// Upload is a receipt file as received from the client.
type Upload struct {
	Data     []byte
	MimeType string
	FileName string
	ImageURL string
}

// ReportExport is a report ready to be written as a workbook.
type ReportExport struct {
	FileName string
	Report   core.Report
}

// ReceiptService orchestrates recognition, the invoice book, the rate store
// and report export.
type ReceiptService struct {
	book       *storage.InvoiceBook
	rates      *storage.RateStore
	recognizer Recognizer
	publisher  ReportPublisher
	fallback   core.Currency
	now        func() time.Time

	mu        sync.RWMutex
	reporting core.Currency

	pending sync.WaitGroup
}

const announceTimeout = 15 * time.Second

// NewReceiptService wires the service. publisher may be nil.
func NewReceiptService(book *storage.InvoiceBook, rates *storage.RateStore, recognizer Recognizer, publisher ReportPublisher, reporting, fallback core.Currency) *ReceiptService {
	if !reporting.Valid() {
		reporting = core.AUD
	}
	if !fallback.Valid() {
		fallback = core.AUD
	}
	return &ReceiptService{
		book:       book,
		rates:      rates,
		recognizer: recognizer,
		publisher:  publisher,
		fallback:   fallback,
		reporting:  reporting,
		now:        time.Now,
	}
}

// AddReceipt recognizes an upload and records it as a new invoice. Any
// recognition failure surfaces as core.ErrExtractionFailed and leaves the
// invoice book untouched.
func (s *ReceiptService) AddReceipt(ctx context.Context, u Upload) (core.Invoice, error) {
	ex, err := s.recognizer.Recognize(ctx, u.Data, u.MimeType)
	if err != nil {
		if !errors.Is(err, core.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
		}
		return core.Invoice{}, err
	}

	fields, err := ex.Fields(s.fallback, s.now().Format(core.DateLayout))
	if err != nil {
		return core.Invoice{}, err
	}
	fields.FileName = u.FileName
	fields.ImageURL = u.ImageURL

	inv, err := s.book.Create(ctx, fields)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("record invoice: %w", err)
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogInvoiceRecorded(ctx, inv)
	return inv, nil
}

func (s *ReceiptService) DeleteInvoice(ctx context.Context, id string) error {
	return s.book.Delete(ctx, id)
}

// SetCategory corrects an invoice category from user input.
func (s *ReceiptService) SetCategory(ctx context.Context, id, raw string) (core.Invoice, error) {
	c, err := core.ParseCategory(raw)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("category %q: %w", raw, err)
	}
	return s.book.SetCategory(ctx, id, c)
}

// SetCurrency relabels an invoice currency. The amount is not converted.
func (s *ReceiptService) SetCurrency(ctx context.Context, id, raw string) (core.Invoice, error) {
	c, err := core.ParseCurrency(raw)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("currency %q: %w", raw, err)
	}
	return s.book.SetCurrency(ctx, id, c)
}

func (s *ReceiptService) Invoices() []core.Invoice {
	return s.book.Snapshot()
}

func (s *ReceiptService) Invoice(id string) (core.Invoice, bool) {
	return s.book.Get(id)
}

func (s *ReceiptService) Rates() core.RateTable {
	return s.rates.Current()
}

// UpdateRates applies raw user edits through the rate gate and publishes the
// resulting table as a whole. Rejected edits keep their previous value.
func (s *ReceiptService) UpdateRates(ctx context.Context, edits map[core.Currency]string) core.RateTable {
	next := s.rates.Update(func(t core.RateTable) core.RateTable {
		return t.ApplyEdits(edits)
	})
	slog.InfoContext(ctx, "Exchange rates updated", "edits", len(edits))
	return next
}

func (s *ReceiptService) ResetRates(ctx context.Context) core.RateTable {
	s.rates.Reset()
	slog.InfoContext(ctx, "Exchange rates reset to defaults")
	return s.rates.Current()
}

func (s *ReceiptService) ReportingCurrency() core.Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reporting
}

func (s *ReceiptService) SetReportingCurrency(raw string) (core.Currency, error) {
	c, err := core.ParseCurrency(raw)
	if err != nil {
		return "", fmt.Errorf("reporting currency %q: %w", raw, err)
	}
	s.mu.Lock()
	s.reporting = c
	s.mu.Unlock()
	return c, nil
}

// resolve picks the explicit currency when valid, the reporting one otherwise.
func (s *ReceiptService) resolve(c core.Currency) core.Currency {
	if c.Valid() {
		return c
	}
	return s.ReportingCurrency()
}

// Summary aggregates the current invoices. It reports false when the invoice
// book is empty.
func (s *ReceiptService) Summary(c core.Currency) (core.Summary, bool) {
	return core.Summarize(s.book.Snapshot(), s.resolve(c), s.rates.Current())
}

// Export builds the report for the current invoices. It reports false when
// there are no invoices.
func (s *ReceiptService) Export(ctx context.Context, c core.Currency) (ReportExport, bool) {
	invoices := s.book.Snapshot()
	if len(invoices) == 0 {
		return ReportExport{}, false
	}

	reporting := s.resolve(c)
	out := ReportExport{
		FileName: core.ExportFileName(reporting, s.now()),
		Report:   core.BuildReport(invoices, reporting, s.rates.Current()),
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogReportExported(ctx, out.FileName, out.Report)
	return out, true
}

// AnnounceExport hands a delivered report to the mirror in the background.
// The publish outlives the request but is bounded by announceTimeout;
// failures are only logged.
func (s *ReceiptService) AnnounceExport(ctx context.Context, out ReportExport) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Report publisher not available, skipping mirror")
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
		defer cancel()
		if err := s.publisher.PublishReport(ctx, out.FileName, out.Report); err != nil {
			slog.ErrorContext(ctx, "Failed to publish report message",
				"file_name", out.FileName,
				"error", err)
		}
	}()
}

// Close waits for background publishes and releases the publisher
// connection when it has one.
func (s *ReceiptService) Close() error {
	s.pending.Wait()
	if closer, ok := s.publisher.(io.Closer); ok && closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
