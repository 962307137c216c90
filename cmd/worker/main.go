// Package main provides the entrypoint for the GuardNomad cache warming worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/guardnomad/guardnomad/internal/advisory"
	"github.com/guardnomad/guardnomad/internal/alert"
	"github.com/guardnomad/guardnomad/internal/search"
	"github.com/guardnomad/guardnomad/internal/search/exa"
	"github.com/guardnomad/guardnomad/internal/weather"
	"github.com/guardnomad/guardnomad/internal/weather/weatherapi"
	"github.com/guardnomad/guardnomad/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "guardnomad-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GuardNomad worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the same service stack the API uses; warming through the
	// services fills the same caches.
	var searchProvider search.Provider
	if apiKey := os.Getenv("EXA_API_KEY"); apiKey != "" {
		searchProvider = exa.NewClient(exa.ClientConfig{APIKey: apiKey, Logger: log})
	}
	searchService := search.NewService(search.ServiceConfig{
		Provider: searchProvider,
		Logger:   log,
	})

	var weatherProvider weather.Provider
	if apiKey := os.Getenv("WEATHER_API_KEY"); apiKey != "" {
		weatherProvider = weatherapi.NewClient(weatherapi.ClientConfig{APIKey: apiKey, Logger: log})
	}
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
	})

	alertService := alert.NewService(alert.ServiceConfig{
		Search:     searchService,
		Advisories: advisory.NewFeedReader(advisory.FeedReaderConfig{Logger: log}),
		Weather:    weatherService,
		Logger:     log,
	})

	// Redis keeps run state visible across worker replicas (optional).
	var stateManager *worker.StateManager
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable - refresh state disabled")
		} else {
			stateManager = worker.NewStateManager(redisClient)
			log.Info().Str("addr", addr).Msg("redis connected")
		}
	} else {
		log.Warn().Msg("REDIS_ADDR not set - refresh state disabled")
	}

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:         log,
		AlertService:   alertService,
		WeatherService: weatherService,
		State:          stateManager,
	})

	// Health check endpoint for the platform.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Pub/Sub triggered mode when configured, otherwise a local ticker.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("pubsub not configured - running on local schedule")

		interval := 30 * time.Minute
		if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				interval = parsed
			}
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			refreshJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
