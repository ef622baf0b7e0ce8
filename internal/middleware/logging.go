package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// MetricsRecorder defines the interface for recording metrics
type MetricsRecorder interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
}

// Logging logs HTTP requests with structured logging and metrics recording.
// The request id is included when the RequestID middleware ran earlier in
// the chain, so a run enqueued over HTTP can be traced from access log to
// ledger row.
func Logging(logger *slog.Logger, metricsRecorder MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			if metricsRecorder != nil {
				metricsRecorder.RecordHTTPRequest(r.Method, wrapped.statusCode, duration)
			}

			attrs := []any{
				"method", r.Method,
				"url", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", duration,
				"user_agent", r.UserAgent(),
				"remote_addr", r.RemoteAddr,
			}
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, "request_id", reqID)
			}
			logger.Info("HTTP request", attrs...)
		})
	}
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
