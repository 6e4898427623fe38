// Package handler provides HTTP handlers for the Q Mobility API.
package handler

import (
	"net/http"
	"time"

	"github.com/qmobility/qmobility/internal/api/models"
	"github.com/qmobility/qmobility/internal/api/response"
	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	kb        *city.KnowledgeBase
	registry  *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. registry may be nil when no
// external provider is configured.
func NewOpsHandler(version, buildTime string, kb *city.KnowledgeBase, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		kb:        kb,
		registry:  registry,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// knowledge base holds at least one city.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.kb == nil || h.kb.Len() == 0 {
		response.ServiceUnavailable(w, r, "city knowledge base not loaded")
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(h.now()),
		Details: map[string]any{"cities": h.kb.Len()},
	})
}

// SystemStatus handles GET /v1/ops/status - knowledge base and provider status.
// An open provider circuit degrades the service; recommendations still work.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{h.knowledgeBaseStatus()},
		Providers:  []models.ProviderStatus{},
	}
	if status.Subsystems[0].Status != models.HealthStatusOK {
		status.Status = models.HealthStatusFail
	}

	if h.registry != nil {
		for _, ph := range h.registry.Snapshot() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) knowledgeBaseStatus() models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "city-knowledge-base", Status: models.HealthStatusOK}
	if h.kb == nil || h.kb.Len() == 0 {
		detail := "no cities loaded"
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	}
	return s
}

func providerStatus(ph resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		Calls:               ph.Calls,
		Failures:            ph.Failures,
		ConsecutiveFailures: ph.ConsecutiveFailures,
		LastLatencyMs:       ph.LastLatency.Milliseconds(),
		LastSuccessAt:       optionalTime(ph.LastSuccessAt),
		LastFailureAt:       optionalTime(ph.LastFailureAt),
	}
	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}

func optionalTime(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
