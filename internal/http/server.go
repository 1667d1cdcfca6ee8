package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/query"
	"fintrack/internal/report"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/transfer"
)

// Deps are the collaborators the API serves. Metrics and Ready are
// optional.
type Deps struct {
	Tracker  *store.Tracker
	Reporter *report.Reporter
	Metrics  *metrics.Metrics
	// Ready reports whether storage is reachable.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit int
	// Now stamps exports; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	tracker  *store.Tracker
	reporter *report.Reporter
	metrics  *metrics.Metrics
	ready    func(ctx context.Context) error
	log      *log.Logger
	now      func() time.Time

	detector *security.Detector
	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default(log.ComponentHTTP)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		tracker:  deps.Tracker,
		reporter: deps.Reporter,
		metrics:  deps.Metrics,
		ready:    deps.Ready,
		log:      deps.Logger,
		now:      deps.Now,
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.log)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	if deps.RateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimit})
		handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(handler)
	}
	handler = s.detector.Middleware(s.onSuspicious)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle(mux, "GET /api/dashboard", s.handleDashboard)
	s.handle(mux, "GET /api/totals", s.handleTotals)
	s.handle(mux, "GET /api/series/monthly", s.handleMonthlySeries)
	s.handle(mux, "GET /api/series/daily", s.handleDailySeries)
	s.handle(mux, "GET /api/categories/breakdown", s.handleCategoryBreakdown)
	s.handle(mux, "GET /api/insights", s.handleInsights)

	s.handle(mux, "GET /api/transactions", s.handleListTransactions)
	s.handle(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.handle(mux, "DELETE /api/transactions", s.handleClearTransactions)
	s.handle(mux, "POST /api/transactions/bulk-delete", s.handleBulkDeleteTransactions)
	s.handle(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	s.handle(mux, "PUT /api/transactions/{id}", s.handleUpdateTransaction)
	s.handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.handle(mux, "GET /api/budgets", s.handleListBudgets)
	s.handle(mux, "POST /api/budgets", s.handleCreateBudget)
	s.handle(mux, "GET /api/budgets/{id}", s.handleGetBudget)
	s.handle(mux, "PUT /api/budgets/{id}", s.handleUpdateBudget)
	s.handle(mux, "DELETE /api/budgets/{id}", s.handleDeleteBudget)

	s.handle(mux, "GET /api/goals", s.handleListGoals)
	s.handle(mux, "POST /api/goals", s.handleCreateGoal)
	s.handle(mux, "GET /api/goals/{id}", s.handleGetGoal)
	s.handle(mux, "PUT /api/goals/{id}", s.handleUpdateGoal)
	s.handle(mux, "DELETE /api/goals/{id}", s.handleDeleteGoal)
	s.handle(mux, "POST /api/goals/{id}/contribute", s.handleContribute)

	s.handle(mux, "GET /api/settings", s.handleGetSettings)
	s.handle(mux, "PATCH /api/settings", s.handleUpdateSettings)
	s.handle(mux, "GET /api/categories", s.handleGetCategories)
	s.handle(mux, "PUT /api/categories", s.handleUpdateCategories)
	s.handle(mux, "POST /api/reset", s.handleReset)
	s.handle(mux, "POST /api/clear", s.handleClearAll)

	s.handle(mux, "POST /api/import", s.handleImport)
	s.handle(mux, "GET /api/export/csv", s.handleExportCSV)
	s.handle(mux, "GET /api/export/json", s.handleExportJSON)
	s.handle(mux, "GET /api/export/backup", s.handleExportBackup)
	s.handle(mux, "POST /api/sample", s.handleSampleData)
}

// handle registers h and records its latency under the route pattern, so
// metric labels never carry raw IDs.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	_, route, _ := strings.Cut(pattern, " ")
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			h(w, r)
			return
		}
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h(rw, r)
		s.metrics.ObserveRequest(route, r.Method, rw.statusCode, time.Since(start))
	})
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RateLimited()
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

func (s *Server) onSuspicious(r *http.Request) {
	if s.metrics != nil {
		s.metrics.Suspicious()
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

// writeError maps an operation failure to its status code. Unexpected
// errors are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		UnprocessableEntityError(verr.Field, verr.Error()).Write(w)
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError("", err.Error()).Write(w)
	case errors.Is(err, transfer.ErrImportFormat):
		ErrorResponse(http.StatusBadRequest, log.ErrorTypeImportFormat, err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, transfer.ErrNothingToExport):
		ErrorResponse(http.StatusNotFound, ErrorTypeNothingToExport, err.Error()).Write(w)
	case errors.Is(err, errBadRequest),
		errors.Is(err, query.ErrInvalidParams),
		errors.Is(err, query.ErrPageOutOfRange):
		BadRequestError(err.Error()).Write(w)
	default:
		errType := log.ErrorTypeInternal
		if errors.Is(err, storage.ErrStorage) {
			errType = log.ErrorTypeStorage
		}
		log.LogError(r.Context(), log.FromContext(r.Context()), "Request failed", err, op, errType)
		InternalServerError("internal error, please try again").Write(w)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

// handleReady fails while storage is unreachable. Report warm-up is
// reported but never blocks readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, ErrorTypeUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	warmed := false
	if s.reporter != nil {
		select {
		case <-s.reporter.Warmed():
			warmed = true
		default:
		}
	}
	NewJSONResponse().Body(map[string]any{
		"status":   "ready",
		"revision": s.tracker.Revision(),
		"warmed":   warmed,
	}).Write(w)
}
