package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs an in-memory tracer provider for the duration of t.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func tracedRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("onboarding"))
	r.Group(func(r chi.Router) {
		r.Use(Session(SessionCookieConfig{}))
		r.Post("/api/v1/onboarding/{step}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{}`))
		})
	})
	return r
}

func TestTracing_SpanNamedAfterRoute(t *testing.T) {
	exporter := recordSpans(t)
	sid := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/phone", nil)
	req.AddCookie(&http.Cookie{Name: "lw_session", Value: sid})
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /api/v1/onboarding/{step}", span.Name)

	route, ok := spanAttr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/onboarding/{step}", route.AsString())

	session, ok := spanAttr(span, "app.session_id")
	require.True(t, ok, "Session should tag the server span")
	assert.Equal(t, sid, session.AsString())

	size, ok := spanAttr(span, "http.response_size")
	require.True(t, ok)
	assert.Equal(t, int64(2), size.AsInt64())
}

func TestTracing_StatusHandling(t *testing.T) {
	tests := []struct {
		status  int
		errored bool
	}{
		{http.StatusOK, false},
		{http.StatusConflict, false},
		{http.StatusBadGateway, true},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			exporter := recordSpans(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/code", nil)
			tracedRouter(tc.status).ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			code, ok := spanAttr(spans[0], "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tc.status), code.AsInt64())
			assert.Equal(t, tc.errored, spans[0].Status.Code == codes.Error)
		})
	}
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := recordSpans(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/back", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
