package handlers

import (
	"net/http"
	"time"

	"partybot/internal/config"
	localMiddleware "partybot/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the spectator router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerSettings, logger *zap.Logger, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	if !opts.DisableRequestLogger {
		r.Use(localMiddleware.RequestLogger(logger))
	}
	r.Use(middleware.Recoverer)

	r.Use(localMiddleware.RequestSizeLimiter(cfg.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/scoreboard", http.StatusFound)
	})

	// streams stay open, so only the plain pages get a timeout
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/scoreboard", h.Scoreboard)
		r.Get("/scoreboard/qr.png", h.ScoreboardQR)
	})
	r.Get("/scoreboard/stream", ValidateStreamRequest(h.StreamScoreboard))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.sessions == nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
