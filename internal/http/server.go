// Package http exposes the expense API over HTTP.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"expenses/internal/auth"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
)

// ExpenseService is the subset of services.ExpenseService the handlers use.
type ExpenseService interface {
	ListExpenses(ctx context.Context, owner core.OwnerID) (core.Listing, error)
	GetExpense(ctx context.Context, owner core.OwnerID, id string) (core.Expense, error)
	CreateExpense(ctx context.Context, owner core.OwnerID, in services.CreateInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, owner core.OwnerID, id string, in services.UpdateInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, owner core.OwnerID, id string) error
	GetSummary(ctx context.Context, owner core.OwnerID) (core.Summary, error)
}

var _ ExpenseService = (*services.ExpenseService)(nil)

type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// SummaryCacheTTL of zero disables the summary cache.
	SummaryCacheTTL time.Duration
	TrustedProxies  []string
}

const (
	summaryCacheSize     = 1000
	cacheCleanupInterval = 10 * time.Minute
	requestTimeout       = 30 * time.Second
	maxBodyBytes         = 1 << 20
)

type Server struct {
	http.Server

	svc    ExpenseService
	logger *log.Logger

	trace       *trace.Middleware
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter

	// Per-owner summaries, dropped on that owner's writes.
	summaryCache *cache.LRUCache[core.Summary]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc ExpenseService, authn auth.Authenticator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      svc,
		logger:   logger,
		detector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		caches: cache.NewManager(),
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", log.FieldError, err)
		}
	}
	s.trace = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	if cfg.SummaryCacheTTL > 0 {
		s.summaryCache = cache.NewLRUCache[core.Summary](summaryCacheSize, cfg.SummaryCacheTTL)
		s.caches.Register(s.summaryCache)
		s.caches.StartCleanup(cacheCleanupInterval)
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg, authn),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config, authn auth.Authenticator) http.Handler {
	r := chi.NewRouter()

	r.Use(s.trace.Middleware)
	r.Use(log.Middleware(s.logger, trace.RequestIDFromRequest))
	r.Use(s.recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(requestTimeout))

	// A known path with an unsupported method is treated as an unknown route.
	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)

		r.Route("/expenses", func(r chi.Router) {
			r.Use(auth.Middleware(authn, s.unauthorized))
			limited := r.With(s.rateLimiter.Middleware(s.rateLimitKey, s.tooManyRequests))

			r.Get("/", s.handleListExpenses)
			r.Get("/summary", s.handleSummary)
			r.Get("/{id}", s.handleGetExpense)
			limited.Post("/", s.handleCreateExpense)
			limited.Put("/{id}", s.handleUpdateExpense)
			limited.Delete("/{id}", s.handleDeleteExpense)
		})
	})

	return r
}

func routeNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

// rateLimitKey buckets writes per owner, falling back to the client IP.
func (s *Server) rateLimitKey(r *http.Request) string {
	if owner, ok := auth.OwnerFromContext(r.Context()); ok {
		return "owner:" + string(owner)
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Request not authorized",
		log.FieldError, err,
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, http.StatusUnauthorized, "Not authorized")
}

func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops background cleanup and drains the HTTP server. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)

		m := s.trace.GetMetrics()
		s.logger.Info("HTTP server stopped",
			"total_requests", m.TotalRequests,
			"server_errors", m.ServerErrors,
			"avg_response_us", m.AverageResponseTime,
			"rate_limited", s.rateLimiter.Rejected(),
			"suspicious_requests", s.detector.SuspiciousCount())
	})
	return err
}
