package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prontuario/patients/internal/patient"
)

func patientIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid patientId")
		return uuid.Nil, false
	}
	return id, true
}

// CreatePatient responde 202 com a visão pública do paciente criado.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req patient.CreatePatientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.Patients.Create(actorContext(r), req)
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, v)
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := ParseLimitOffset(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, total, err := h.Patients.List(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients": list,
		"limit":    limit,
		"offset":   offset,
		"total":    total,
	})
}

// GetPatient serve do cache quando possível; a entrada cai em qualquer escrita do paciente.
// A geração é lida antes do banco: se uma escrita invalidar no meio, o valor lido não é gravado.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := patientIDFrom(w, r)
	if !ok {
		return
	}
	key := patientCacheKey(id.String())
	gen := h.Cache.Generation()
	if b := h.Cache.Get(key); b != nil {
		writeRaw(w, http.StatusOK, b)
		return
	}
	v, err := h.Patients.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	h.Cache.SetIfUnchanged(key, b, gen)
	writeRaw(w, http.StatusOK, b)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := patientIDFrom(w, r)
	if !ok {
		return
	}
	var req patient.UpdatePatientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.Patients.Update(actorContext(r), id, req)
	h.Cache.Delete(patientCacheKey(id.String()))
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) UpdatePatientAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := patientIDFrom(w, r)
	if !ok {
		return
	}
	var req patient.AddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.Patients.UpdateAddress(actorContext(r), id, req)
	h.Cache.Delete(patientCacheKey(id.String()))
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) DeactivatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := patientIDFrom(w, r)
	if !ok {
		return
	}
	err := h.Patients.Deactivate(actorContext(r), id)
	h.Cache.Delete(patientCacheKey(id.String()))
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Paciente desativado."})
}

func (h *Handler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := patientIDFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Patients.ListAppointments(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointments": list})
}
