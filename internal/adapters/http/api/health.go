// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/entretien/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthDependencies exposes the readiness state of the serving core.
type HealthDependencies interface {
	Ready() bool
	ArtifactVersion() string
}

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status          string `json:"status"`
	Ready           bool   `json:"ready"`
	ArtifactVersion string `json:"artifact_version,omitempty"`
}

// HandleHealth handles GET /healthz requests. It reports 200 once the
// artifact is loaded and workers are running, 503 before that.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if !h.deps.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting", Ready: false})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Ready:           true,
		ArtifactVersion: h.deps.ArtifactVersion(),
	})
}

// HandleMetrics handles GET /metrics requests.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	// Use our custom metrics registry to serve metrics
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
