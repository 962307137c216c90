package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/guardnomad/guardnomad/internal/api/models"
	"github.com/guardnomad/guardnomad/internal/api/response"
	"github.com/guardnomad/guardnomad/internal/cache"
	"github.com/guardnomad/guardnomad/internal/provider/resilience"
)

// OpsConfig holds dependencies for the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry tracks upstream provider breakers (optional).
	Registry *resilience.Registry

	// CacheStats reports per-cache fill statistics (optional).
	CacheStats func() map[string]cache.Stats

	// Ready reports readiness of hard dependencies (optional; defaults to
	// always ready). The service itself degrades rather than failing, so
	// only wiring problems make it unready.
	Ready func() error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Ready != nil {
		if err := h.cfg.Ready(); err != nil {
			response.ServiceUnavailable(w, r, err.Error())
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - provider and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: h.subsystems(),
		Providers:  h.providers(),
	}

	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
			break
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.AllHealth()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	providers := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		status := models.HealthStatusOK
		switch p.State {
		case gobreaker.StateHalfOpen:
			status = models.HealthStatusDegraded
		case gobreaker.StateOpen:
			status = models.HealthStatusFail
		}

		ps := models.ProviderStatus{Provider: p.Name, Status: status}
		if p.LastSuccessAt != nil {
			t := models.Timestamp(*p.LastSuccessAt)
			ps.LastSuccessAt = &t
		}
		if p.LastFailureAt != nil {
			t := models.Timestamp(*p.LastFailureAt)
			ps.LastFailureAt = &t
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		providers = append(providers, ps)
	}
	return providers
}

func (h *OpsHandler) subsystems() []models.SubsystemStatus {
	if h.cfg.CacheStats == nil {
		return []models.SubsystemStatus{}
	}

	stats := h.cfg.CacheStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	subsystems := make([]models.SubsystemStatus, 0, len(names))
	for _, name := range names {
		subsystems = append(subsystems, models.SubsystemStatus{
			Name:   "cache:" + name,
			Status: models.HealthStatusOK,
		})
	}
	return subsystems
}
