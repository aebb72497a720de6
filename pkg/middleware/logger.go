package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shashiranjanraj/brewhaus/pkg/logger"
	"github.com/shashiranjanraj/brewhaus/pkg/reqid"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger logs each request with method, path, status, duration, and the
// request_id injected by reqid.Middleware. Wire reqid.Middleware() before
// this one so the ID is available when Logger runs.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := base.With("request_id", reqid.FromCtx(r.Context()))
			r = r.WithContext(logger.Inject(r.Context(), reqLog))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			reqLog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration", time.Since(start).String(),
				"ip", r.RemoteAddr,
			)
		})
	}
}
