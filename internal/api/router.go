// Package api provides the HTTP API for GuardNomad.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/api/handler"
	"github.com/guardnomad/guardnomad/internal/api/middleware"
	"github.com/guardnomad/guardnomad/internal/auth"
	"github.com/guardnomad/guardnomad/internal/cache"
	"github.com/guardnomad/guardnomad/internal/provider/resilience"
	"github.com/guardnomad/guardnomad/internal/search"
	"github.com/guardnomad/guardnomad/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Verifier       *auth.Verifier
	AlertService   *alert.Service
	AlertReader    handler.AlertReader
	SearchService  *search.Service
	WeatherService *weather.Service
	Registry       *resilience.Registry
	Ready          func() error
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "guardnomad-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Registry:   cfg.Registry,
		CacheStats: combinedCacheStats(cfg),
		Ready:      cfg.Ready,
	})
	alertsHandler := handler.NewAlertsHandler(cfg.AlertService, cfg.AlertReader)
	searchHandler := handler.NewSearchHandler(cfg.SearchService)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Data endpoints. Auth is optional so local development works
		// without a Supabase project; production always sets the secret.
		r.Group(func(r chi.Router) {
			if cfg.Verifier != nil {
				r.Use(middleware.Auth(cfg.Verifier))
				r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			} else {
				r.Use(standardRateLimit)
			}

			// Alert aggregation - fans out to external providers
			r.Route("/alerts", func(r chi.Router) {
				r.With(expensiveRateLimit).Post("/generate", alertsHandler.GenerateAlerts)
				r.Get("/recent", alertsHandler.RecentAlerts)
				r.Get("/advice", alertsHandler.CountryAdvice)
			})

			// Unified search endpoints
			r.Route("/search", func(r chi.Router) {
				r.Get("/news", searchHandler.LocalNews)
				r.Get("/scams", searchHandler.ScamAlerts)
				r.Get("/events", searchHandler.LocalEvents)
				r.Get("/advisories", searchHandler.TravelSafetyAlerts)
				r.With(expensiveRateLimit).Get("/safety", searchHandler.LocationSafetyData)
			})

			// Weather endpoints
			r.Route("/weather", func(r chi.Router) {
				r.Get("/current", weatherHandler.Current)
				r.Get("/forecast", weatherHandler.Forecast)
			})
		})
	})

	return r
}

// combinedCacheStats merges cache statistics across services for the ops
// status endpoint.
func combinedCacheStats(cfg RouterConfig) func() map[string]cache.Stats {
	return func() map[string]cache.Stats {
		stats := make(map[string]cache.Stats)
		if cfg.SearchService != nil {
			for name, s := range cfg.SearchService.CacheStats() {
				stats["search."+name] = s
			}
		}
		if cfg.AlertService != nil {
			stats["alerts"] = cfg.AlertService.CacheStats()
		}
		return stats
	}
}
