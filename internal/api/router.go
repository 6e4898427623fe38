// Package api provides the HTTP API for Q Mobility.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/qmobility/qmobility/internal/api/handler"
	"github.com/qmobility/qmobility/internal/api/middleware"
	"github.com/qmobility/qmobility/internal/api/models"
	"github.com/qmobility/qmobility/internal/api/response"
	"github.com/qmobility/qmobility/internal/assistant"
	"github.com/qmobility/qmobility/internal/mobility"
	"github.com/qmobility/qmobility/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Mobility and Assistant are required.
	Mobility  *mobility.Service
	Assistant *assistant.Assistant

	// Registry reports provider health on /v1/ops/status.
	Registry *resilience.Registry

	// Rate limits per client IP. Zero values use the middleware defaults.
	RateLimit     middleware.RateLimitConfig
	ChatRateLimit middleware.RateLimitConfig

	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "qmobility-api"
	}
	standardLimit := cfg.RateLimit
	if standardLimit.RequestLimit == 0 {
		standardLimit = middleware.StandardRateLimit
	}
	chatLimit := cfg.ChatRateLimit
	if chatLimit.RequestLimit == 0 {
		chatLimit = middleware.ChatRateLimit
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Problem(w, r, models.ProblemNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Problem(w, r, models.ProblemMethodNotAllowed, r.Method+" is not supported on "+r.URL.Path)
	})

	kb := cfg.Mobility.KnowledgeBase()
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, kb, cfg.Registry)
	metadataHandler := handler.NewMetadataHandler(kb, cfg.Mobility.Thresholds())
	recommendationHandler := handler.NewRecommendationHandler(cfg.Mobility, cfg.Assistant)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(standardLimit))
			r.Get("/cities", metadataHandler.ListCities)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		r.With(middleware.RateLimitByIP(standardLimit), middleware.RequireJSON).
			Post("/recommendations", recommendationHandler.Recommend)

		// Chat can reach the hosted model, so it gets its own tighter budget.
		r.With(middleware.RateLimitByIP(chatLimit), middleware.RequireJSON).
			Post("/chat", recommendationHandler.Chat)
	})

	return r
}
