package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/platform/logger"
)

// NewTraceMiddleware returns middleware that assigns each request a
// trace ID and stores a trace-scoped logger in the request context.
// It should be applied early in the chain so all subsequent handlers,
// services and stores log with the trace ID attached.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
