package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Kirito-012/Ancient-Health/pkg/logger"
)

// SessionID ensures every request carries a session id: the X-Session-ID
// header when the browser already has one, a fresh UUID otherwise. The id is
// echoed in the response header so the frontend can persist it, and stored in
// context for the request-scoped logger and the handlers.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Session-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Session-ID", id)
		ctx := logger.WithSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
