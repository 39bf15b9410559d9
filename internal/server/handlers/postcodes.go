package handlers

import (
	"io"
	"net/http"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/response"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// HandleUploadPostcodes handles POST /api/upload/postcodes/{state}. The
// list is read from the multipart "file" field and must be a .csv file.
func (h *Handlers) HandleUploadPostcodes(w http.ResponseWriter, r *http.Request) {
	state := r.PathValue("state")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "Could not read uploaded file")
		return
	}

	result, err := h.client.UploadPostcodes(r.Context(), state, header.Filename, string(content))
	if err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Str("state", state).Msg("Postcode upload rejected")
		response.Error(w, err, nil)
		return
	}
	response.OK(w, result)
}

// HandleGetPostcodes handles GET /api/postcodes/{state}.
func (h *Handlers) HandleGetPostcodes(w http.ResponseWriter, r *http.Request) {
	result, err := h.client.Postcodes(r.Context(), r.PathValue("state"))
	if err != nil {
		response.Error(w, err, nil)
		return
	}
	response.OK(w, result)
}
