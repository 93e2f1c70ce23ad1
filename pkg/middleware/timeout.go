package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Timeout bounds the handler's wall-clock time. If the handler has not
// started writing when the deadline passes, the client gets a 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.started.CompareAndSwap(false, true) {
					slog.Warn("request deadline exceeded",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					w.Write([]byte(`{"error":"request timeout"}`))
				}
			}
		})
	}
}

// guardedWriter flags the first write so the timeout branch never writes a
// second status line onto a response the handler already started.
type guardedWriter struct {
	http.ResponseWriter
	started atomic.Bool
}

func (g *guardedWriter) WriteHeader(code int) {
	if g.started.CompareAndSwap(false, true) {
		g.ResponseWriter.WriteHeader(code)
	}
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.started.Store(true)
	return g.ResponseWriter.Write(b)
}
