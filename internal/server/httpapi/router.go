package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/metrics"
)

// RouterConfig collects what NewRouter wires together. Metrics and Ping may
// be nil.
type RouterConfig struct {
	Auth            AuthAPI
	Tokens          TokenParser
	Logger          logging.Logger
	Metrics         *metrics.Metrics
	Ping            func(ctx context.Context) error
	ResetLinkURL    string
	RequestTimeout  time.Duration
	RateLimitPerMin int
	Production      bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 60
	}
	h := &handler{
		auth:         cfg.Auth,
		validate:     newValidator(),
		resetLinkURL: cfg.ResetLinkURL,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(log),
		middleware.Recoverer,
		middleware.Timeout(cfg.RequestTimeout),
		secureHeaders(log, cfg.Production),
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, Problem{Status: http.StatusNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, Problem{Status: http.StatusMethodNotAllowed})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r.Context()); err != nil {
				log.Warn(r.Context(), "health check failed", "error", err)
				writeProblem(w, r, Problem{Status: http.StatusServiceUnavailable})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := httprate.Limit(cfg.RateLimitPerMin, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, r, Problem{Status: http.StatusTooManyRequests, Detail: "Rate limit exceeded."})
		}),
	)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/forgot-password", h.forgotPassword)
			r.Post("/reset-password", h.resetPassword)
		})
		r.With(requireBearer(cfg.Tokens)).Get("/me", h.me)
	})

	return r
}
