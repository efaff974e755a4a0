package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
	"finanzas/internal/whatsapp"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API exposes.
type Deps struct {
	Movements *services.MovementService
	Catalog   *services.CatalogService
	Reports   *services.ReportService
	Console   *whatsapp.Console
	Store     Pinger
}

// Options tune the middleware stack.
type Options struct {
	RateLimitPerMinute int
	SummaryCacheSize   int
	SummaryCacheTTL    time.Duration
	CleanupInterval    time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimitPerMinute: 60,
		SummaryCacheSize:   100,
		SummaryCacheTTL:    5 * time.Minute,
		CleanupInterval:    10 * time.Minute,
	}
}

type Server struct {
	http.Server
	deps   Deps
	logger *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// Summaries are cached per query and purged on every write.
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager
	loadSummary  func(context.Context, services.SummaryQuery) (core.Summary, error)

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	defaults := DefaultOptions()
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = defaults.SummaryCacheSize
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = defaults.SummaryCacheTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaults.CleanupInterval
	}

	s := &Server{
		deps:         deps,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(logger),
		summaryCache: cache.NewLRUCache[core.Summary](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(logger),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	s.loadSummary = deps.Reports.Summary
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(opts.CleanupInterval)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not found", "no route for "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported on "+r.URL.Path)
	})
	s.routes(router)

	var handler http.Handler = router
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = s.detector.Middleware(handler)

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

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/movimientos", s.handleListMovements).Methods(http.MethodGet)
	api.HandleFunc("/movimientos", s.handleCreateMovement).Methods(http.MethodPost)
	api.HandleFunc("/movimientos/resumen", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/movimientos/registrar", s.handleRegisterMovement).Methods(http.MethodPost)
	api.HandleFunc("/movimientos/export.xlsx", s.handleExportMovements).Methods(http.MethodGet)
	api.HandleFunc("/movimientos/{id:[0-9]+}", s.handleGetMovement).Methods(http.MethodGet)
	api.HandleFunc("/movimientos/{id:[0-9]+}", s.handleUpdateMovement).Methods(http.MethodPut)
	api.HandleFunc("/movimientos/{id:[0-9]+}", s.handlePatchMovement).Methods(http.MethodPatch)
	api.HandleFunc("/movimientos/{id:[0-9]+}", s.handleDeleteMovement).Methods(http.MethodDelete)

	api.HandleFunc("/categorias", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categorias", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categorias/{id:[0-9]+}", s.handleGetCategory).Methods(http.MethodGet)
	api.HandleFunc("/categorias/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categorias/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)
	api.HandleFunc("/categorias/{id:[0-9]+}/balance", s.handleCategoryBalance).Methods(http.MethodGet)

	api.HandleFunc("/cuentas", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/cuentas", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/cuentas/{id:[0-9]+}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/cuentas/{id:[0-9]+}", s.handleUpdateAccount).Methods(http.MethodPut)
	api.HandleFunc("/cuentas/{id:[0-9]+}", s.handleDeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/cuentas/{id:[0-9]+}/balance", s.handleAccountBalance).Methods(http.MethodGet)

	api.HandleFunc("/presupuestos", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/presupuestos", s.handleCreateBudget).Methods(http.MethodPost)
	api.HandleFunc("/presupuestos/{id:[0-9]+}", s.handleGetBudget).Methods(http.MethodGet)
	api.HandleFunc("/presupuestos/{id:[0-9]+}", s.handleUpdateBudget).Methods(http.MethodPut)
	api.HandleFunc("/presupuestos/{id:[0-9]+}", s.handleDeleteBudget).Methods(http.MethodDelete)
	api.HandleFunc("/presupuestos/{id:[0-9]+}/estado", s.handleBudgetStatus).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	api.HandleFunc("/whatsapp/formatos", s.handleWhatsAppFormats).Methods(http.MethodGet)
	api.HandleFunc("/whatsapp/config", s.handleWhatsAppConfig).Methods(http.MethodGet)
	api.HandleFunc("/whatsapp/test", s.handleWhatsAppTest).Methods(http.MethodPost)
	api.HandleFunc("/whatsapp/mensajes", s.handleWhatsAppMessages).Methods(http.MethodGet)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeProblem(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, retry in a minute")
}

// invalidateReports drops cached summaries after any write that can move a
// total: movements, and account opening balances.
func (s *Server) invalidateReports(ctx context.Context) {
	if n := s.summaryCache.Purge(); n > 0 {
		s.logger.DebugContext(ctx, "Summary cache purged", "entries", n)
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeProblem(w, http.StatusServiceUnavailable, "Not ready", "database unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
