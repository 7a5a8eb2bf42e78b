package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/internal/core"
)

func jsonLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Format: "json", Output: buf})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, ComponentRates)

	logger.Info("rates reset", "edits", 2)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "rates reset", rec["msg"])
	assert.Equal(t, ComponentRates, rec[FieldComponent])
	assert.EqualValues(t, 2, rec["edits"])
}

func TestWithComponentKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, ComponentApp).With(FieldRequestID, "req-1").WithComponent(ComponentExport)

	logger.Warn("slow export")

	rec := lastRecord(t, &buf)
	assert.Equal(t, ComponentExport, rec[FieldComponent])
	assert.Equal(t, "req-1", rec[FieldRequestID])
	assert.Equal(t, "WARN", rec["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "json", Output: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogInvoiceRecorded(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))

	sl.LogInvoiceRecorded(context.Background(), core.Invoice{
		ID: "abc", InvoiceNumber: "INV-0003", Amount: 12.5,
		Currency: core.EUR, Category: core.Meal, Merchant: "Cafe",
	})

	rec := lastRecord(t, &buf)
	assert.Equal(t, ComponentReceipts, rec[FieldComponent])
	assert.Equal(t, "INV-0003", rec[FieldInvoiceNumber])
	assert.Equal(t, "EUR", rec[FieldCurrency])
	assert.Equal(t, "Meal", rec[FieldCategory])
	assert.Equal(t, OpCreate, rec[FieldOperation])
}

func TestLogReportExported(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))

	r := core.Report{Currency: core.USD, Rows: make([]core.ReportRow, 3), Total: 99}
	sl.LogReportExported(context.Background(), "expense_report_USD_2025-01-01.xlsx", r)

	rec := lastRecord(t, &buf)
	assert.Equal(t, ComponentExport, rec[FieldComponent])
	assert.Equal(t, "USD", rec[FieldReportingCurrency])
	assert.EqualValues(t, 3, rec[FieldRows])
	assert.EqualValues(t, 99, rec[FieldTotal])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))

	sl.LogError(context.Background(), "publish failed", errors.New("broker down"), ComponentAMQP, OpExport, nil)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "broker down", rec[FieldError])
	assert.Equal(t, ComponentAMQP, rec[FieldComponent])
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusUnprocessableEntity, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))
		req := httptest.NewRequest(http.MethodPost, "/receipts?x=1", nil)

		sl.LogHTTPEnd(context.Background(), req, tt.status, 12, "10.0.0.1")

		rec := lastRecord(t, &buf)
		assert.Equal(t, tt.level, rec["level"])
		assert.Equal(t, "/receipts", rec[FieldPath])
		assert.Equal(t, "x=1", rec[FieldQuery])
		assert.EqualValues(t, tt.status, rec[FieldStatusCode])
	}
}

func TestMiddlewareAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := jsonLogger(&buf, ComponentHTTP)

	var got *Logger
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "rid-9" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	got.Info("inside")
	assert.Equal(t, "rid-9", lastRecord(t, &buf)[FieldRequestID])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
