package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const listEventsSQL = "SELECT id, stage FROM onboarding_funnel_events WHERE stage = $1"

func spanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func observations(t *testing.T, operation, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, queryDuration.WithLabelValues(operation, outcome).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func slowLog(t *testing.T, threshold time.Duration) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetSlowQueryLogging(threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	return &buf
}

func TestTraceQuery_SpanShape(t *testing.T) {
	exporter := spanRecorder(t)

	_, end := TraceQuery(context.Background(), "ListFunnelEvents", listEventsSQL)
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "db.ListFunnelEvents", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	attrs := map[string]string{}
	for _, kv := range span.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, listEventsSQL, attrs["db.statement"])
	assert.Equal(t, "ok", attrs["db.outcome"])
}

func TestTraceQuery_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
		status  codes.Code
	}{
		{"success", nil, "ok", codes.Unset},
		{"no rows is not a failure", fmt.Errorf("get outreach: %w", pgx.ErrNoRows), "no_rows", codes.Unset},
		{"driver error", errors.New("connection refused"), "error", codes.Error},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exporter := spanRecorder(t)
			op := "Outcome_" + tc.outcome
			before := observations(t, op, tc.outcome)

			_, end := TraceQuery(context.Background(), op, "SELECT 1")
			end(tc.err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.status, spans[0].Status.Code)
			assert.Equal(t, tc.status == codes.Error, len(spans[0].Events) > 0)
			assert.Equal(t, before+1, observations(t, op, tc.outcome))
		})
	}
}

func TestTraceQuery_ChildOfCallerSpan(t *testing.T) {
	exporter := spanRecorder(t)

	ctx, parent := otel.Tracer("funnel-test").Start(context.Background(), "RecordStage")
	_, end := TraceQuery(ctx, "InsertFunnelEvent", "INSERT INTO onboarding_funnel_events VALUES ($1)")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSlowQueryLogging(t *testing.T) {
	spanRecorder(t)

	t.Run("logs statement and error past threshold", func(t *testing.T) {
		buf := slowLog(t, time.Nanosecond)
		_, end := TraceQuery(context.Background(), "UpdateOutreachStatus", "UPDATE outreach SET status = $1")
		time.Sleep(time.Millisecond)
		end(errors.New("deadlock detected"))

		out := buf.String()
		assert.Contains(t, out, "slow query detected")
		assert.Contains(t, out, "UpdateOutreachStatus")
		assert.Contains(t, out, "UPDATE outreach SET status = $1")
		assert.Contains(t, out, "deadlock detected")
	})

	t.Run("quiet under threshold", func(t *testing.T) {
		buf := slowLog(t, time.Hour)
		_, end := TraceQuery(context.Background(), "Ping", "SELECT 1")
		end(nil)
		assert.Empty(t, buf.String())
	})

	t.Run("disabled by zero threshold", func(t *testing.T) {
		SetSlowQueryLogging(0, slog.Default())
		assert.Nil(t, slowQueryCfg.Load())
		_, end := TraceQuery(context.Background(), "Ping", "SELECT 1")
		assert.NotPanics(t, func() { end(nil) })
	})
}
