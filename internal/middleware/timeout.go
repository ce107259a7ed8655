package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout cancels the request context after d. When the handler returns on a
// deadline without having written anything, the client gets 504.
// d <= 0 disables it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))
			if !rec.wroteHeader && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				http.Error(w, `{"error":"timeout"}`, http.StatusGatewayTimeout)
			}
		})
	}
}
