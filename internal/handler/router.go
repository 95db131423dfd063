package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/coursecast/internal/config"
	"github.com/Shivanand-hulikatti/coursecast/internal/metrics"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Handler *ScoreHandler
	Issuer  *session.Issuer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	HTTP    config.HTTPConfig
}

// NewRouter builds the chi router with the global middleware stack and all
// API routes.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := d.Handler
	limiter := NewIPRateLimiter(d.HTTP.RateLimit.RPS, d.HTTP.RateLimit.Burst)
	limited := RateLimit(limiter)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(Metrics(d.Metrics))
	r.Use(CORS(d.HTTP.AllowedOrigins))

	r.Get("/health", HealthCheck)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Get("/all", h.ListAllCourses)
		r.With(limited).Post("/", h.CreateCourse)
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.With(limited).Post("/", h.CreateTournament)
		r.With(limited).Post("/validate", h.ValidateCode)
		r.Get("/{code}/scoreboard", h.GetScoreboard)
		r.Get("/{code}/scoreboard.xlsx", h.ExportScoreboard)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Use(limited)
		r.Post("/", h.CreateTeam)
		r.Post("/check", h.CheckTeam)
		r.Post("/rejoin", h.RejoinTeam)
		r.With(Session(d.Issuer)).Post("/update-score", h.UpdateScore)
	})

	// Static front-end, when configured, is served at the root.
	if d.HTTP.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.HTTP.StaticDir)))
	}

	return r
}
