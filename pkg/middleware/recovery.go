package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/httputil"
	"github.com/linkwise/linkwise/pkg/logger"
)

var panicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "http",
	Name:      "panics_recovered_total",
	Help:      "Handler panics turned into 500 responses.",
})

// Recovery turns a handler panic into a 500 error envelope. The panic is
// logged with its stack and recorded on the active span. If the handler had
// already started the response, nothing more is written. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				panicsRecovered.Inc()

				ctx := r.Context()
				span := trace.SpanFromContext(ctx)
				span.RecordError(fmt.Errorf("panic: %v", v))
				span.SetStatus(codes.Error, "panic")

				l.ErrorContext(ctx, "panic recovered",
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", rec.wroteHeader),
				)
				if rec.wroteHeader {
					return
				}

				httputil.WriteJSON(rec, http.StatusInternalServerError, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:      apperrors.CodeInternal,
						Message:   apperrors.UserMessage(nil),
						RequestID: logger.CorrelationIDFromContext(ctx),
					},
				})
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
