package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"receipts/internal/cache"
	applog "receipts/internal/log"
	"receipts/internal/middleware/ratelimit"
	"receipts/internal/middleware/security"
	"receipts/internal/middleware/trace"
	"receipts/internal/services"
	appweb "receipts/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger             *applog.Logger
	MaxUploadBytes     int64
	RateLimitPerMinute int
	// RecognitionStats reports the recognition cache counters on /metrics.
	RecognitionStats func() cache.Stats
}

const defaultMaxUploadBytes = 10 << 20

// appMetrics counts domain events for /metrics.
type appMetrics struct {
	uptime             time.Time
	receiptsRecorded   atomic.Int64
	extractionFailures atomic.Int64
	reportsExported    atomic.Int64
}

// Server serves the receipts UI and its HTMX partials.
type Server struct {
	http.Server

	svc       *services.ReceiptService
	templates *template.Template
	logger    *applog.Logger

	maxUpload        int64
	recognitionStats func() cache.Stats

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.ReceiptService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	detector := security.NewDetector()
	s := &Server{
		svc:              svc,
		logger:           logger,
		maxUpload:        maxUpload,
		recognitionStats: opts.RecognitionStats,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/receipts", s.handleUploadReceipt)
	mux.HandleFunc("GET /ui/invoices", s.handleInvoices)
	mux.HandleFunc("POST /invoices/{id}/delete", s.handleDeleteInvoice)
	mux.HandleFunc("DELETE /invoices/{id}", s.handleDeleteInvoice)
	mux.HandleFunc("POST /invoices/{id}/category", s.handleSetCategory)
	mux.HandleFunc("POST /invoices/{id}/currency", s.handleSetCurrency)

	mux.HandleFunc("GET /ui/summary", s.handleSummary)
	mux.HandleFunc("POST /reporting-currency", s.handleReportingCurrency)
	mux.HandleFunc("GET /rates", s.handleRates)
	mux.HandleFunc("POST /rates", s.handleUpdateRates)
	mux.HandleFunc("POST /rates/reset", s.handleResetRates)
	mux.HandleFunc("GET /export", s.handleExport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimited)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		Header("Retry-After", "60").
		Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
