// Package main provides the entrypoint for the GuardNomad API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/advisory"
	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/api"
	"github.com/guardnomad/guardnomad/internal/api/handler"
	"github.com/guardnomad/guardnomad/internal/auth"
	"github.com/guardnomad/guardnomad/internal/provider/resilience"
	"github.com/guardnomad/guardnomad/internal/search"
	"github.com/guardnomad/guardnomad/internal/search/exa"
	"github.com/guardnomad/guardnomad/internal/storage"
	"github.com/guardnomad/guardnomad/internal/telemetry"
	"github.com/guardnomad/guardnomad/internal/weather"
	"github.com/guardnomad/guardnomad/internal/weather/weatherapi"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "guardnomad-api"

	// Local development reads .env; in production the platform injects env.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GuardNomad API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	registry := resilience.NewRegistry()

	// Database is optional; without it alert history is simply unavailable.
	var alertRepo alert.Repository
	var alertReader handler.AlertReader
	var ready func() error
	if os.Getenv("DB_HOST") != "" {
		dbConfig := storage.ConfigFromEnv()
		pool, err := storage.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		repo := storage.NewPostgresAlertRepository(pool)
		alertRepo = repo
		alertReader = repo
		ready = func() error { return pool.Ping(context.Background()) }

		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		log.Warn().Msg("DB_HOST not set - alert history disabled")
	}

	// Search provider (optional; missing key means permanent fallback mode).
	var searchProvider search.Provider
	if apiKey := os.Getenv("EXA_API_KEY"); apiKey != "" {
		client := exa.NewClient(exa.ClientConfig{
			APIKey: apiKey,
			Logger: log,
		})
		registry.RegisterClient(exa.ProviderName, client.HTTPClient())
		searchProvider = client
		log.Info().Msg("exa search provider initialized")
	} else {
		log.Warn().Msg("EXA_API_KEY not set - search serving fallback data only")
	}

	searchService := search.NewService(search.ServiceConfig{
		Provider: searchProvider,
		Logger:   log,
	})
	registry.Register("search-gate", searchService.GateState)

	// Weather provider (optional; synthetic weather without it).
	var weatherProvider weather.Provider
	if apiKey := os.Getenv("WEATHER_API_KEY"); apiKey != "" {
		client := weatherapi.NewClient(weatherapi.ClientConfig{
			APIKey: apiKey,
			Logger: log,
		})
		registry.RegisterClient(weatherapi.ProviderName, client.HTTPClient())
		weatherProvider = client
		log.Info().Msg("weatherapi provider initialized")
	} else {
		log.Warn().Msg("WEATHER_API_KEY not set - weather is synthetic")
	}

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
	})

	feedReader := advisory.NewFeedReader(advisory.FeedReaderConfig{
		Logger: log,
	})

	alertService := alert.NewService(alert.ServiceConfig{
		Search:     searchService,
		Advisories: feedReader,
		Weather:    weatherService,
		Repository: alertRepo,
		Logger:     log,
	})
	log.Info().Msg("alert service initialized")

	// Supabase JWT verification (optional for local development).
	var verifier *auth.Verifier
	if secret := os.Getenv("SUPABASE_JWT_SECRET"); secret != "" {
		verifier = auth.NewVerifier(auth.VerifierConfig{Secret: secret})
		log.Info().Msg("supabase token verifier initialized")
	} else {
		log.Warn().Msg("SUPABASE_JWT_SECRET not set - API is unauthenticated")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Verifier:       verifier,
		AlertService:   alertService,
		AlertReader:    alertReader,
		SearchService:  searchService,
		WeatherService: weatherService,
		Registry:       registry,
		Ready:          ready,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
