package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prontuario/patients/internal/patient"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads one JSON object into dst. Empty or malformed bodies are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			jsonError(w, http.StatusBadRequest, "empty body")
			return false
		}
		jsonError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

// writeServiceError translates service errors to status + body. fallback is the
// status used for persistence/unexpected failures (502 on writes, 500 on reads);
// their text is only logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	var ve *patient.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"details": ve.Fields,
		})
	case errors.Is(err, patient.ErrInvalidCPF):
		jsonError(w, http.StatusBadRequest, "invalid cpf")
	case errors.Is(err, patient.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, patient.ErrConflict):
		jsonError(w, http.StatusConflict, "cpf already registered")
	default:
		h.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("patient operation failed")
		jsonError(w, fallback, "internal")
	}
}
