package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchfoundry/appstack/pkg/logger"
)

const traceIDKey contextKey = "trace_id"

// TraceIDFromContext returns the request's trace ID, or "".
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// TraceIDFromRequest returns the request's trace ID, or "".
func TraceIDFromRequest(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// TracingMiddleware assigns each request a trace ID and logs it on
// completion.
type TracingMiddleware struct {
	log         *logger.Logger
	logRequests bool
}

// NewTracingMiddleware creates the tracing middleware.
func NewTracingMiddleware(log *logger.Logger, logRequests bool) *TracingMiddleware {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return &TracingMiddleware{log: log, logRequests: logRequests}
}

// Handler returns the tracing middleware handler.
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Trace-ID", traceID)

		// Thread the ID through the context so downstream logs can carry it.
		r = r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r)

		if m.logRequests {
			m.log.WithFields(map[string]any{
				"trace_id": traceID,
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.statusCode,
				"duration": time.Since(start).String(),
			}).Info("request completed")
		}
	})
}
