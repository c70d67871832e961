package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linkwise/linkwise/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context. It carries the
// correlation and trace ids plus the method and path. Handlers fetch it with
// logger.FromContext.
//
// Mount it after RequestLogging and Tracing. Session and Auth run later,
// inside route groups, and add session_id and user_id through withLogAttrs.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scoped := logger.WithContext(ctx, base).With(
				slog.String("http_method", r.Method),
				slog.String("http_path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, scoped)))
		})
	}
}

// withLogAttrs replaces the request-scoped logger with one carrying attrs.
func withLogAttrs(ctx context.Context, attrs ...any) context.Context {
	return logger.NewContext(ctx, logger.FromContext(ctx).With(attrs...))
}
