package api

import (
	"errors"
	"net/http"

	"github.com/prontuario/patients/internal/patient"
)

// SearchPatients busca por nome exato (?userInput=). Regras violadas vêm todas em "errors".
func (h *Handler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	list, err := h.Patients.Search(r.Context(), r.URL.Query().Get(patient.SearchParam))
	if err != nil {
		var ve *patient.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": ve.Fields})
			return
		}
		h.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": list})
}
