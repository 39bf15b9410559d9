package handlers

import (
	"net/http"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/response"
)

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.client.Health(r.Context()))
}

// HandleSources handles GET /api/sources.
func (h *Handlers) HandleSources(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{"sources": h.client.Sources()})
}
