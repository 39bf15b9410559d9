package handlers

import (
	"net/http"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/response"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// HandleSyncAll handles POST /api/sync/all/{state}.
func (h *Handlers) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	state := r.PathValue("state")
	result, err := h.client.SyncAll(r.Context(), state)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("state", state).Msg("Bulk sync failed")
		response.Error(w, err, map[string]any{"state": state})
		return
	}
	response.OK(w, result)
}

// HandleSyncSource handles POST /api/sync/{source}[/{state}[/{postcode}]].
func (h *Handlers) HandleSyncSource(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	state := r.PathValue("state")
	postcode := r.PathValue("postcode")

	result, err := h.client.SyncSource(r.Context(), source, state, postcode)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("source", source).Msg("Source sync failed")
		response.Error(w, err, map[string]any{"source": source})
		return
	}
	response.OK(w, result)
}

// HandleLookupABN handles GET /api/lookup/abn/{abn}.
func (h *Handlers) HandleLookupABN(w http.ResponseWriter, r *http.Request) {
	abn := r.PathValue("abn")
	result, err := h.client.LookupABN(r.Context(), abn)
	if err != nil {
		response.Error(w, err, map[string]any{"abn": abn})
		return
	}
	response.OK(w, result)
}
