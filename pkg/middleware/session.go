package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linkwise/linkwise/pkg/logger"
)

// SessionCookieConfig controls the browser session cookie.
type SessionCookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type sessionKey struct{}

// Session ensures every request carries a browser session id. An existing
// cookie holding a valid UUID is reused; otherwise a fresh id is minted and
// set on the response. The id is stored in context for handlers and logging.
func Session(cfg SessionCookieConfig) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = "lw_session"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(cfg.Name); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					sid = c.Value
				}
			}

			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.Name,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sid)
			ctx = logger.WithSessionID(ctx, sid)
			ctx = withLogAttrs(ctx, slog.String("session_id", sid))
			noteSession(ctx, sid)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.session_id", sid))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the browser session id set by Session.
func SessionIDFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionKey{}).(string); ok {
		return sid
	}
	return ""
}

// WithSessionID stores a session id in ctx. Used by tests and by callers
// that resolve the session outside the HTTP stack.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(logger.WithSessionID(ctx, sid), sessionKey{}, sid)
}
