package http

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	probes []HealthProbe
}

type healthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Time         time.Time         `json:"time"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Health reports 503 when any dependency probe fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Service: "storefront-service", Time: time.Now().UTC()}
	status := http.StatusOK
	if len(h.probes) > 0 {
		resp.Dependencies = make(map[string]string, len(h.probes))
	}
	for _, p := range h.probes {
		if err := p.Check(ctx); err != nil {
			resp.Dependencies[p.Name()] = "down: " + err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[p.Name()] = "up"
	}
	writeJSON(w, status, resp)
}
