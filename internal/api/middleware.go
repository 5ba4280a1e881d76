package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	authorizedKey
)

// requestID propagates a caller-supplied X-Request-ID or assigns a UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the request id assigned by the server.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// authMiddleware records whether the request carries the admin token. It
// never rejects on its own; the engine decides what an unauthorized caller
// may do.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok := s.adminToken != "" && tokenMatches(r.Header.Get("Authorization"), s.adminToken)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authorizedKey, ok)))
	})
}

func tokenMatches(header, token string) bool {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	credential = strings.TrimSpace(credential)
	return subtle.ConstantTimeCompare([]byte(credential), []byte(token)) == 1
}

func authorized(r *http.Request) bool {
	ok, _ := r.Context().Value(authorizedKey).(bool)
	return ok
}

// requireAuthorized guards routes that disclose a whole domain at once.
func requireAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			respondError(w, http.StatusForbidden, "You lack permission to manage settings")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
