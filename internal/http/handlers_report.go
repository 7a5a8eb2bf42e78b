package http

import (
	"bytes"
	"net/http"
	"strconv"

	"receipts/internal/core"
	"receipts/internal/export"
	applog "receipts/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleSummary renders the spend summary in the requested currency, or the
// reporting currency when none is given.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.svc.Summary(currencyParam(r))
	s.writeTemplate(w, r, "summary", newSummaryView(summary, ok), NewHTMXResponse())
}

func (s *Server) handleReportingCurrency(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	c, err := s.svc.SetReportingCurrency(p.Get("currency"))
	if err != nil {
		UnprocessableEntityError("Unknown currency").Write(w)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRates).InfoContext(r.Context(),
		"Reporting currency changed", applog.FieldReportingCurrency, c)

	summary, ok := s.svc.Summary(c)
	s.writeTemplate(w, r, "summary", newSummaryView(summary, ok),
		NewHTMXResponse().TriggerReportingChanged(c))
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, "rates", newRateRows(s.svc.Rates()), NewHTMXResponse())
}

// handleUpdateRates applies rate edits. Edits that fail validation keep the
// previous rate, so the response always shows the table now in effect.
func (s *Server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	p, fail := parseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	edits := p.RateEdits()
	if len(edits) == 0 {
		UnprocessableEntityError("No rates submitted").Write(w)
		return
	}

	after := s.svc.UpdateRates(r.Context(), edits)

	rejected := 0
	for c, raw := range edits {
		if _, err := core.ParseRate(raw); err != nil || c == core.BaseCurrency {
			rejected++
		}
	}

	resp := NewHTMXResponse().TriggerRatesChanged()
	if rejected > 0 {
		resp.TriggerNotification(NotificationWarning, strconv.Itoa(rejected)+" invalid rate(s) ignored", 5000)
	} else {
		resp.TriggerSuccessNotification("Exchange rates updated")
	}
	s.writeTemplate(w, r, "rates", newRateRows(after), resp)
}

func (s *Server) handleResetRates(w http.ResponseWriter, r *http.Request) {
	rates := s.svc.ResetRates(r.Context())
	s.writeTemplate(w, r, "rates", newRateRows(rates),
		NewHTMXResponse().TriggerRatesChanged().TriggerSuccessNotification("Exchange rates reset"))
}

// handleExport streams the expense report as an XLSX download and announces
// it to the mirror once the workbook is built. With no invoices there is
// nothing to export and the response is empty.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	out, ok := s.svc.Export(r.Context(), currencyParam(r))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, out.Report); err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Failed to build workbook", err, applog.ComponentExport, applog.OpExport,
			applog.NewFields().WithReport(out.FileName, out.Report))
		InternalServerError("Error building report").Write(w)
		return
	}
	s.appMetrics.reportsExported.Add(1)
	s.svc.AnnounceExport(r.Context(), out)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
