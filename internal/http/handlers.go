package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"receipts/internal/core"
	applog "receipts/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports whether the server can render pages.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["invoices"] = len(s.svc.Invoices())
	checks["reporting_currency"] = s.svc.ReportingCurrency()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	if s.recognitionStats != nil {
		st := s.recognitionStats()
		checks["recognition_cache"] = map[string]any{"entries": st.Entries, "status": "ok"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "HTTP responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("receipts_recorded_total", "counter", "Receipts recognized and recorded", s.appMetrics.receiptsRecorded.Load())
	metric("receipt_extraction_failures_total", "counter", "Uploads rejected by recognition", s.appMetrics.extractionFailures.Load())
	metric("reports_exported_total", "counter", "Expense reports downloaded", s.appMetrics.reportsExported.Load())
	metric("invoices", "gauge", "Invoices currently recorded", len(s.svc.Invoices()))

	if s.recognitionStats != nil {
		st := s.recognitionStats()
		metric("recognition_cache_hits_total", "counter", "Recognition results served from cache", st.Hits)
		metric("recognition_cache_misses_total", "counter", "Recognition cache misses", st.Misses)
		metric("recognition_cache_entries", "gauge", "Recognition results currently cached", st.Entries)
	}

	metric("rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.svc.Summary("")
	data := pageData{
		Reporting:  s.svc.ReportingCurrency(),
		Currencies: core.Currencies(),
		Categories: core.Categories(),
		Invoices:   newInvoiceList(s.svc.Invoices()),
		Summary:    newSummaryView(summary, ok),
		Rates:      newRateRows(s.svc.Rates()),
	}
	s.writeTemplate(w, r, "index.html", data, NewHTMXResponse())
}

// writeTemplate renders name into the body of resp and sends it. Rendering
// failures become a 500.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, name string, data any, resp *HTMXResponseBuilder) {
	body, err := s.render(name, data)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		InternalServerError("Error rendering page").Write(w)
		return
	}
	resp.BodyHTML(body).Write(w)
}
