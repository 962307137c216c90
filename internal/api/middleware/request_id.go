// Package middleware provides HTTP middleware for the GuardNomad API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey is the context key for the request ID.
type requestIDKey struct{}

// maxRequestIDLen bounds client-supplied IDs so log lines stay sane.
const maxRequestIDLen = 64

// RequestID attaches a correlation ID to every request. A client-supplied
// X-Request-Id is honored (truncated if oversized), otherwise a fresh one is
// generated. The ID is echoed back in the response header and stored in the
// request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		switch {
		case requestID == "":
			requestID = newRequestID()
		case len(requestID) > maxRequestIDLen:
			requestID = requestID[:maxRequestIDLen]
		}

		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	return "req_" + uuid.New().String()[:22]
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
