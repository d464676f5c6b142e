// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/seasonrank/pkg/metrics"
)

// TableCounter reports how many ranked tables are being served.
type TableCounter interface {
	Count(ctx context.Context) int
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	counter TableCounter
}

// NewHealthHandler creates a new health handler. counter may be nil.
func NewHealthHandler(counter TableCounter) *HealthHandler {
	return &HealthHandler{counter: counter}
}

type healthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	resp := healthResponse{Status: "ok"}
	if h.counter != nil {
		resp.Tables = h.counter.Count(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

// MetricsHandler serves the custom metrics registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
