package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the settings NewRouter needs besides the handlers.
type RouterConfig struct {
	Token     string
	StaticDir string
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// NewRouter builds and returns the Chi router with all routes configured.
// Pages and health are public; cache stats require bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, cfg RouterConfig, cache storePinger, db dbPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(StructuredLogger(log))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/", handlers.Index)
	r.Post("/attractions", handlers.Attractions)
	r.Post("/hotels", handlers.Hotels)
	r.Post("/tickets", handlers.Tickets)

	if cfg.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Get("/api/v1/health", HealthHandlerFunc(cache, db, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Token))
		r.Get("/api/v1/cache/stats", handlers.CacheStats)
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
