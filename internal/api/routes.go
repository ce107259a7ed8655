package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/middleware"
)

type RouterOptions struct {
	JWTSecret   []byte
	CORSOrigins []string
	Timeout     time.Duration
}

// NewRouter registers every route and wraps them in the middleware chain:
// request id, recover, logger, timeout, CORS, gzip. /api requires a JWT.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.Ready).Methods(http.MethodGet)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuth(opts.JWTSecret))

	staff := middleware.RequireRole(auth.RoleProfessional, auth.RoleReception, auth.RoleSuperAdmin)
	clinical := middleware.RequireRole(auth.RoleProfessional, auth.RoleSuperAdmin)

	// /patients/search antes de /patients/{patientId}.
	protected.Handle("/patients/search", staff(http.HandlerFunc(h.SearchPatients))).Methods(http.MethodGet)
	protected.Handle("/patients", staff(http.HandlerFunc(h.ListPatients))).Methods(http.MethodGet)
	protected.Handle("/patients", staff(http.HandlerFunc(h.CreatePatient))).Methods(http.MethodPost)
	protected.Handle("/patients/{patientId}", staff(http.HandlerFunc(h.GetPatient))).Methods(http.MethodGet)
	protected.Handle("/patients/{patientId}", staff(http.HandlerFunc(h.UpdatePatient))).Methods(http.MethodPut)
	protected.Handle("/patients/{patientId}", clinical(http.HandlerFunc(h.DeactivatePatient))).Methods(http.MethodDelete)
	protected.Handle("/patients/{patientId}/address", staff(http.HandlerFunc(h.UpdatePatientAddress))).Methods(http.MethodPut)
	protected.Handle("/patients/{patientId}/appointments", staff(http.HandlerFunc(h.ListPatientAppointments))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var chain http.Handler = middleware.Gzip(r)
	chain = middleware.CORS(opts.CORSOrigins)(chain)
	chain = middleware.Timeout(opts.Timeout)(chain)
	chain = middleware.Logger(h.Log)(chain)
	chain = middleware.Recover(h.Log)(chain)
	return middleware.RequestID(chain)
}
