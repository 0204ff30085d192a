package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/pkg/httputil"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// sessionKey is the context key for the shopper session.
const sessionKey contextKey = "session"

// SessionFromHeaders reads the shopper identity injected by the gateway:
// X-Customer-ID for authenticated customers (set after JWT validation) and
// X-Device-ID for anonymous visitors. Requests carrying neither are rejected.
func SessionFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := domain.Session{
			CustomerID: strings.TrimSpace(r.Header.Get("X-Customer-ID")),
			DeviceID:   strings.TrimSpace(r.Header.Get("X-Device-ID")),
		}
		if !session.Valid() {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "UNAUTHORIZED",
					Message: "X-Customer-ID or X-Device-ID header is required",
				},
			})
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext extracts the shopper session stored by SessionFromHeaders.
func sessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionKey).(domain.Session)
	return session, ok && session.Valid()
}

// ContentTypeJSON enforces that requests with a body declare JSON content.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
