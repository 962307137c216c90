package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker. Cloud Scheduler
// publishes a message per warming interval; the worker is otherwise idle.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage represents a cache warm job message.
type RefreshMessage struct {
	JobType      string   `json:"job_type"`
	Destinations []string `json:"destinations,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var refreshMsg RefreshMessage
	if err := json.Unmarshal(msg.Data, &refreshMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch refreshMsg.JobType {
	case "cache_warm":
		err = h.handleCacheWarm(ctx, refreshMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", refreshMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", refreshMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleCacheWarm(ctx context.Context, msg RefreshMessage) error {
	job := h.refreshJob
	if len(msg.Destinations) > 0 {
		job = h.scopedJob(msg.Destinations)
	}

	result := job.Run(ctx)

	// Tolerate partial failure; the interactive path degrades gracefully
	// for anything left cold.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warm failures: %d/%d", result.Failed, result.TotalTargets)
	}
	return nil
}

// scopedJob narrows the refresh job to the named destinations.
func (h *PubSubHandler) scopedJob(destinations []string) *RefreshJob {
	wanted := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		wanted[d] = true
	}

	config := h.refreshJob.config
	var targets []RefreshTarget
	for _, t := range config.Targets {
		if wanted[t.Destination] {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return h.refreshJob
	}
	config.Targets = targets

	return NewRefreshJob(RefreshJobConfig{
		Config:         config,
		Logger:         h.logger,
		AlertService:   h.refreshJob.alertService,
		WeatherService: h.refreshJob.weatherService,
		State:          h.refreshJob.state,
	})
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Warm a single destination to verify wiring end to end.
	healthCheckJob := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Targets: []RefreshTarget{
				{Destination: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Priority: 1},
			},
			Concurrency: 1,
			Timeout:     10 * time.Second,
			WarmAlerts:  true,
			WarmWeather: false,
		},
		Logger:         h.logger,
		AlertService:   h.refreshJob.alertService,
		WeatherService: h.refreshJob.weatherService,
	})

	result := healthCheckJob.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
