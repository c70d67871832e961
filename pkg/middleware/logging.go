package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkwise/linkwise/pkg/logger"
)

// CorrelationIDHeader carries the request correlation id in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

// Inbound correlation ids are echoed into logs and headers, so only short
// token-like values are trusted.
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// requestNotes collects identities resolved by middleware deeper in the chain
// so the access log line written on the way out can include them.
type requestNotes struct {
	mu        sync.Mutex
	sessionID string
	userID    string
}

type notesKey struct{}

func noteSession(ctx context.Context, sid string) {
	if n, ok := ctx.Value(notesKey{}).(*requestNotes); ok {
		n.mu.Lock()
		n.sessionID = sid
		n.mu.Unlock()
	}
}

func noteUser(ctx context.Context, userID string) {
	if n, ok := ctx.Value(notesKey{}).(*requestNotes); ok {
		n.mu.Lock()
		n.userID = userID
		n.mu.Unlock()
	}
}

// RequestLogging assigns a correlation id and writes one access log line per
// request. 4xx responses log at warn and 5xx at error; health checks and
// metrics scrapes log at debug.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(CorrelationIDHeader)
			if !correlationIDPattern.MatchString(correlationID) {
				correlationID = uuid.NewString()
			}
			w.Header().Set(CorrelationIDHeader, correlationID)

			notes := &requestNotes{}
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			ctx = context.WithValue(ctx, notesKey{}, notes)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.written),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", correlationID),
			}
			notes.mu.Lock()
			if notes.sessionID != "" {
				attrs = append(attrs, slog.String("session_id", notes.sessionID))
			}
			if notes.userID != "" {
				attrs = append(attrs, slog.String("user_id", notes.userID))
			}
			notes.mu.Unlock()

			l.LogAttrs(ctx, accessLevel(r.URL.Path, rec.status), "http request", attrs...)
		})
	}
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case strings.HasPrefix(path, "/health/"), path == "/metrics":
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
