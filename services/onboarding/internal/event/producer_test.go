package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/linkwise/linkwise/pkg/kafka"
	"github.com/linkwise/linkwise/pkg/logger"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, l), l)
}

func decode(t *testing.T, msg kafka.Message) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	return ev
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "linkwise.onboarding.phone_verified", TopicPhoneVerified)
	assert.Equal(t, "linkwise.onboarding.completed", TopicOnboardingCompleted)
	assert.Equal(t, "linkwise.opportunity.accepted", TopicOpportunityAccepted)
}

func TestObserve_PhoneVerified(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	p.Observe(ctx, domain.FunnelEvent{
		SessionID: "sid-1",
		UserID:    "u-1",
		Stage:     domain.FunnelPhoneVerified,
		Outcome:   domain.OutcomeOK,
		CreatedAt: at,
	})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicPhoneVerified, w.msgs[0].Topic)
	assert.Equal(t, "u-1", string(w.msgs[0].Key))

	ev := decode(t, w.msgs[0])
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, "sid-1", ev.SessionID)
	assert.Equal(t, SourceOnboardingService, ev.Source)

	var data PhoneVerifiedData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "sid-1", data.SessionID)
	assert.True(t, at.Equal(data.VerifiedAt))
	assert.NotContains(t, string(ev.Data), "phone\"")
}

func TestObserve_Completed(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	p.Observe(context.Background(), domain.FunnelEvent{
		UserID: "u-1", Stage: domain.FunnelCompleted, Outcome: domain.OutcomeOK,
	})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicOnboardingCompleted, w.msgs[0].Topic)
}

func TestObserve_IgnoresOtherStagesAndFailures(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	p.Observe(context.Background(), domain.FunnelEvent{Stage: domain.FunnelCodeRequested, Outcome: domain.OutcomeOK})
	p.Observe(context.Background(), domain.FunnelEvent{Stage: domain.FunnelPhoneVerified, Outcome: domain.OutcomeFailed})
	p.Observe(context.Background(), domain.FunnelEvent{Stage: domain.FunnelReset, Outcome: domain.OutcomeOK})

	assert.Empty(t, w.msgs)
}

func TestObserve_PublishFailureIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	assert.NotPanics(t, func() {
		p.Observe(context.Background(), domain.FunnelEvent{
			Stage: domain.FunnelCompleted, Outcome: domain.OutcomeOK,
		})
	})
}

func TestPublishOpportunityAccepted(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishOpportunityAccepted(context.Background(), "opp-1", "sid-1"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicOpportunityAccepted, w.msgs[0].Topic)

	ev := decode(t, w.msgs[0])
	assert.Equal(t, SubjectOpportunity, ev.SubjectType)
	assert.Equal(t, "sid-1", ev.SessionID)
	assert.Equal(t, "opp-1", ev.Subject)
}

func TestPublish_ErrorWrapsTopic(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishOpportunityAccepted(context.Background(), "opp-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicOpportunityAccepted)
}
