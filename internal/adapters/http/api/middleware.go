package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ecolens/ecolens/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, time.Since(start))
	}
}

// authedHandler is a business handler that requires a resolved caller
// identity.
type authedHandler func(w http.ResponseWriter, r *http.Request, caller string)

// withAuth resolves the bearer token to a caller identity before invoking
// the handler. Authorization against the target user happens per handler;
// identity resolution happens here, at the boundary.
func (s *Server) withAuth(next authedHandler, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		const op = "api.auth"
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
			return
		}
		caller, err := s.deps.ResolveSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
			return
		}
		next(w, r, caller)
	}, endpoint)
}

// requireOwner enforces that the caller is the user addressed by the path.
// Acting on another user's data is Unauthorized, not NotFound, matching the
// original tracker's behavior.
func requireOwner(w http.ResponseWriter, r *http.Request, caller string) (string, bool) {
	userID := r.PathValue("id")
	if userID == "" || userID != caller {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind("api.owner", ErrUnauthorized))
		return "", false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
