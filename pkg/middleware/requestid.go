package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/mediatrack/recostats/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID returns middleware that reads the X-Request-ID header, generating
// a fresh ID when absent, stores it in the request context for logging, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
