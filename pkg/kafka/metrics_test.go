package kafka

import (
	"context"
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func published(t *testing.T, topic, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, messagesPublished.WithLabelValues(topic, outcome).Write(&m))
	return m.GetCounter().GetValue()
}

func TestPublishMetrics_ByOutcome(t *testing.T) {
	topic := Topic("test", "metrics")
	event, err := NewEvent("test.metrics", "u-1", "user", "onboarding-service", nil)
	require.NoError(t, err)

	ok, failed := published(t, topic, "ok"), published(t, topic, "error")

	require.NoError(t, NewProducerWithWriter(&fakeWriter{}, nil, nil).Publish(context.Background(), topic, event))
	require.Error(t, NewProducerWithWriter(&fakeWriter{err: errors.New("leader not available")}, nil, nil).
		Publish(context.Background(), topic, event))

	assert.Equal(t, ok+1, published(t, topic, "ok"))
	assert.Equal(t, failed+1, published(t, topic, "error"))
}
