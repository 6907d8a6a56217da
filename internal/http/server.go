// Package http serves the ledger engine and its reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"miadmin/internal/cache"
	"miadmin/internal/core"
	"miadmin/internal/log"
	"miadmin/internal/middleware/ratelimit"
	"miadmin/internal/middleware/security"
	"miadmin/internal/middleware/trace"
	"miadmin/internal/report"
	"miadmin/internal/services"
)

// HeaderPIN carries the ledger PIN once one is set.
const HeaderPIN = "X-Ledger-PIN"

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Addr              string
	Location          *time.Location
	CacheTTL          time.Duration
	CacheSize         int
	RequestsPerMinute int
	Logger            *log.Logger
	Now               func() time.Time
}

type Server struct {
	http.Server
	engine   *services.Engine
	logger   *log.Logger
	loc      *time.Location
	now      func() time.Time
	limiter  *ratelimit.Limiter
	detector *security.Detector

	// Report caches keyed by ledger revision, so a write never serves stale data.
	caches        *cache.Manager
	summaryCache  *cache.LRUCache[core.MonthOverview]
	budgetCache   *cache.LRUCache[[]report.BudgetStatus]
	upcomingCache *cache.LRUCache[[]report.Payment]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(engine *services.Engine, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rlConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		engine:        engine,
		logger:        opts.Logger.WithComponent(log.ComponentHTTP),
		loc:           opts.Location,
		now:           opts.Now,
		limiter:       ratelimit.NewLimiter(rlConfig),
		detector:      security.NewDetector(),
		caches:        cache.NewManager(),
		summaryCache:  cache.NewLRUCache[core.MonthOverview](opts.CacheSize, opts.CacheTTL),
		budgetCache:   cache.NewLRUCache[[]report.BudgetStatus](opts.CacheSize, opts.CacheTTL),
		upcomingCache: cache.NewLRUCache[[]report.Payment](opts.CacheSize, opts.CacheTTL),
	}
	s.caches.Register(s.summaryCache)
	s.caches.Register(s.budgetCache)
	s.caches.Register(s.upcomingCache)
	s.caches.StartCleanup(opts.CacheTTL)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/state", s.handleState)

	api.HandleFunc("GET /api/accounts", s.handleListAccounts)
	api.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	api.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	api.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	api.HandleFunc("GET /api/accounts/{id}/stats", s.handleAccountStats)

	api.HandleFunc("GET /api/movements", s.handleListMovements)
	api.HandleFunc("POST /api/movements", s.handleCreateMovement)
	api.HandleFunc("PATCH /api/movements/{id}", s.handleEditMovement)
	api.HandleFunc("DELETE /api/movements/{id}", s.handleDeleteMovement)

	api.HandleFunc("GET /api/debts", s.handleListDebts)
	api.HandleFunc("POST /api/debts", s.handleCreateDebt)
	api.HandleFunc("PATCH /api/debts/{id}", s.handleUpdateDebt)
	api.HandleFunc("DELETE /api/debts/{id}", s.handleDeleteDebt)
	api.HandleFunc("POST /api/debts/{id}/payments", s.handleDebtPayment)

	api.HandleFunc("GET /api/savings", s.handleListSavings)
	api.HandleFunc("POST /api/savings", s.handleCreateSavings)
	api.HandleFunc("PATCH /api/savings/{id}", s.handleUpdateSavings)
	api.HandleFunc("DELETE /api/savings/{id}", s.handleDeleteSavings)
	api.HandleFunc("POST /api/savings/{id}/contributions", s.handleSavingsContribution)

	api.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	api.HandleFunc("POST /api/subscriptions", s.handleCreateSubscription)
	api.HandleFunc("PUT /api/subscriptions/{id}", s.handleUpdateSubscription)
	api.HandleFunc("DELETE /api/subscriptions/{id}", s.handleDeleteSubscription)

	api.HandleFunc("GET /api/budgets", s.handleGetBudgets)
	api.HandleFunc("PUT /api/budgets", s.handleSetBudgets)
	api.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)

	api.HandleFunc("POST /api/reconcile/compare", s.handleCompareBalance)
	api.HandleFunc("POST /api/reconcile", s.handleReconcile)

	api.HandleFunc("GET /api/summary", s.handleMonthSummary)
	api.HandleFunc("GET /api/summary/range", s.handleRangeSummary)
	api.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	api.HandleFunc("GET /api/totals", s.handleTotals)
	api.HandleFunc("GET /api/audit", s.handleAudit)

	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("POST /api/import", s.handleImport)
	api.HandleFunc("POST /api/reset", s.handleReset)
	api.HandleFunc("PUT /api/pin", s.handleSetPIN)
	api.HandleFunc("PUT /api/theme", s.handleSetTheme)

	mux.Handle("/api/", s.requirePIN(api))
	return mux
}

// middleware wraps h with, outermost first: request id, request logger,
// access log, security headers, scanner detection and the write rate limit.
func (s *Server) middleware(h http.Handler) http.Handler {
	tracer := trace.NewMiddleware()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		writeJSON(w, r, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Status: http.StatusTooManyRequests})
	}

	h = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = log.AccessLog(s.detector.ExtractClientIP)(h)
	h = log.Middleware(s.logger, trace.RequestIDFromRequest)(h)
	return tracer.Middleware(h)
}

// requirePIN rejects API calls without the right PIN once a PIN is set.
func (s *Server) requirePIN(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.VerifyPIN(r.Header.Get(HeaderPIN)); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports the revision so readiness checks can tell a loaded ledger apart.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	rev := s.engine.Revision()
	if rev == 0 {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "loading"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"status": "ready", "revision": rev})
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
