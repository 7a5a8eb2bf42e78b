package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"receipts/internal/core"
	"receipts/internal/storage"
)

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error) {
	args := m.Called(ctx, data, mimeType)
	return args.Get(0).(core.Extraction), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReport(ctx context.Context, fileName string, r core.Report) error {
	return m.Called(ctx, fileName, r).Error(0)
}

func newTestService(rec Recognizer, pub ReportPublisher) *ReceiptService {
	s := NewReceiptService(storage.NewInvoiceBook(), storage.NewRateStore(), rec, pub, core.AUD, core.AUD)
	s.now = func() time.Time { return time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestAddReceipt(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, []byte("img"), "image/png").Return(core.Extraction{
		Date: "2025-07-01", Amount: 23.4, Currency: "EUR", Category: "Meal", Merchant: "Trattoria",
	}, nil)

	s := newTestService(rec, nil)
	inv, err := s.AddReceipt(context.Background(), Upload{Data: []byte("img"), MimeType: "image/png", FileName: "lunch.png"})
	require.NoError(t, err)

	assert.Equal(t, "INV-0001", inv.InvoiceNumber)
	assert.Equal(t, core.EUR, inv.Currency)
	assert.Equal(t, core.Meal, inv.Category)
	assert.Equal(t, "lunch.png", inv.FileName)
	assert.Len(t, s.Invoices(), 1)
	rec.AssertExpectations(t)
}

func TestAddReceiptDefaults(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return(core.Extraction{
		Amount: 5, Currency: "XYZ", Category: "Snacks",
	}, nil)

	inv, err := newTestService(rec, nil).AddReceipt(context.Background(), Upload{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-14", inv.Date)
	assert.Equal(t, core.AUD, inv.Currency)
	assert.Equal(t, core.Unclassified, inv.Category)
	assert.Equal(t, core.UnknownMerchant, inv.Merchant)
}

func TestAddReceiptFailureLeavesBookUntouched(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(core.Extraction{}, errors.New("quota exceeded")).Once()
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(core.Extraction{Amount: -3, Currency: "USD"}, nil).Once()

	s := newTestService(rec, nil)
	for i := 0; i < 2; i++ {
		_, err := s.AddReceipt(context.Background(), Upload{Data: []byte("x")})
		assert.ErrorIs(t, err, core.ErrExtractionFailed)
	}
	assert.Empty(t, s.Invoices())
}

func TestFieldCorrections(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(core.Extraction{Amount: 100, Currency: "USD", Category: "Unknown"}, nil)
	s := newTestService(rec, nil)
	inv, err := s.AddReceipt(context.Background(), Upload{Data: []byte("x")})
	require.NoError(t, err)

	got, err := s.SetCategory(context.Background(), inv.ID, "flight")
	require.NoError(t, err)
	assert.Equal(t, core.Flight, got.Category)

	got, err = s.SetCurrency(context.Background(), inv.ID, "jpy")
	require.NoError(t, err)
	assert.Equal(t, core.JPY, got.Currency)
	assert.Equal(t, 100.0, got.Amount)

	_, err = s.SetCurrency(context.Background(), inv.ID, "CHF")
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)
	_, err = s.SetCategory(context.Background(), "missing", "Meal")
	assert.ErrorIs(t, err, core.ErrInvoiceNotFound)

	require.NoError(t, s.DeleteInvoice(context.Background(), inv.ID))
	assert.ErrorIs(t, s.DeleteInvoice(context.Background(), inv.ID), core.ErrInvoiceNotFound)
}

func TestRates(t *testing.T) {
	s := newTestService(&mockRecognizer{}, nil)

	next := s.UpdateRates(context.Background(), map[core.Currency]string{
		core.EUR: "0,95",
		core.GBP: "-1",
		core.USD: "2",
	})
	assert.Equal(t, 0.95, next[core.EUR])
	assert.Equal(t, 0.79, next[core.GBP])
	assert.Equal(t, 1.0, next[core.USD])
	assert.Equal(t, next, s.Rates())

	assert.Equal(t, core.DefaultRates(), s.ResetRates(context.Background()))
}

func TestUpdateRatesConcurrently(t *testing.T) {
	s := newTestService(&mockRecognizer{}, nil)
	edits := map[core.Currency]string{
		core.EUR: "0.5", core.GBP: "0.6", core.JPY: "100", core.CAD: "1.1",
		core.AUD: "1.2", core.CNY: "7", core.SGD: "1.3", core.HKD: "8",
	}

	var wg sync.WaitGroup
	for c, raw := range edits {
		wg.Add(1)
		go func(c core.Currency, raw string) {
			defer wg.Done()
			s.UpdateRates(context.Background(), map[core.Currency]string{c: raw})
		}(c, raw)
	}
	wg.Wait()

	want := core.DefaultRates().ApplyEdits(edits)
	assert.Equal(t, want, s.Rates())
}

func TestReportingCurrency(t *testing.T) {
	s := newTestService(&mockRecognizer{}, nil)
	assert.Equal(t, core.AUD, s.ReportingCurrency())

	c, err := s.SetReportingCurrency("gbp")
	require.NoError(t, err)
	assert.Equal(t, core.GBP, c)
	assert.Equal(t, core.GBP, s.ReportingCurrency())

	_, err = s.SetReportingCurrency("BTC")
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)
	assert.Equal(t, core.GBP, s.ReportingCurrency())
}

func TestSummaryAndExport(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(core.Extraction{Amount: 100, Currency: "USD", Category: "Meal"}, nil)
	pub := &mockPublisher{}
	s := newTestService(rec, pub)

	_, ok := s.Summary("")
	assert.False(t, ok)
	_, ok = s.Export(context.Background(), "")
	assert.False(t, ok)
	pub.AssertNotCalled(t, "PublishReport", mock.Anything, mock.Anything, mock.Anything)

	_, err := s.AddReceipt(context.Background(), Upload{Data: []byte("x")})
	require.NoError(t, err)

	sum, ok := s.Summary("")
	require.True(t, ok)
	assert.Equal(t, core.AUD, sum.Currency)
	assert.InDelta(t, 152.0, sum.Total, 1e-9)

	out, ok := s.Export(context.Background(), core.EUR)
	require.True(t, ok)
	assert.Equal(t, "expense_report_EUR_2025-07-14.xlsx", out.FileName)
	assert.Equal(t, core.EUR, out.Report.Currency)
	assert.InDelta(t, 92.0, out.Report.Total, 1e-9)
	pub.AssertNotCalled(t, "PublishReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnnounceExportRunsDetachedFromRequest(t *testing.T) {
	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(core.Extraction{Amount: 10, Currency: "USD", Category: "Meal"}, nil)
	pub := &mockPublisher{}
	s := newTestService(rec, pub)
	_, err := s.AddReceipt(context.Background(), Upload{Data: []byte("x")})
	require.NoError(t, err)

	out, ok := s.Export(context.Background(), "")
	require.True(t, ok)

	pub.On("PublishReport", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	}), out.FileName, out.Report).Return(errors.New("broker down"))

	ctx, cancel := context.WithCancel(context.Background())
	s.AnnounceExport(ctx, out)
	cancel()

	require.NoError(t, s.Close(), "publish failures are only logged")
	pub.AssertExpectations(t)
}

func TestAnnounceExportWithoutPublisher(t *testing.T) {
	s := newTestService(&mockRecognizer{}, nil)
	s.AnnounceExport(context.Background(), ReportExport{FileName: "x.xlsx"})
	assert.NoError(t, s.Close())
}

func TestReceiptServiceClose(t *testing.T) {
	s := newTestService(&mockRecognizer{}, nil)
	assert.NoError(t, s.Close())
}
