package api

import (
	"context"
	"net/http"

	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/cache"
	"github.com/prontuario/patients/internal/middleware"
	"github.com/prontuario/patients/internal/patient"
	"github.com/rs/zerolog"
)

// Handler holds what the HTTP layer needs. Ping backs /ready; Cache may be nil.
type Handler struct {
	Patients *patient.Service
	Cache    *cache.TTL
	Ping     func(ctx context.Context) error
	Log      zerolog.Logger
}

func NewHandler(svc *patient.Service, c *cache.TTL, ping func(ctx context.Context) error, log zerolog.Logger) *Handler {
	return &Handler{Patients: svc, Cache: c, Ping: ping, Log: log}
}

// logger returns the request logger set by middleware.Logger, or the handler's own.
func (h *Handler) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.Log
}

// actorContext carries who is calling into the service, for the audit trail.
func actorContext(r *http.Request) context.Context {
	return patient.WithActor(r.Context(), patient.Actor{
		Type:      auth.RoleFrom(r.Context()),
		ID:        auth.UserIDFrom(r.Context()),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

func patientCacheKey(id string) string { return "patient:" + id }
