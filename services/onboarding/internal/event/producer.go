package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/linkwise/linkwise/pkg/kafka"
	"github.com/linkwise/linkwise/pkg/logger"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// Kafka topics for onboarding domain events.
var (
	TopicPhoneVerified       = pkgkafka.Topic("onboarding", "phone_verified")
	TopicOnboardingCompleted = pkgkafka.Topic("onboarding", "completed")
	TopicOpportunityAccepted = pkgkafka.Topic("opportunity", "accepted")
)

// Event subject types.
const (
	SubjectUser        = "user"
	SubjectOpportunity = "opportunity"
)

// SourceOnboardingService identifies events originating from this service.
const SourceOnboardingService = "onboarding-service"

// PhoneVerifiedData is the payload for an onboarding.phone_verified event.
// It never carries the phone number itself.
type PhoneVerifiedData struct {
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// OnboardingCompletedData is the payload for an onboarding.completed event.
type OnboardingCompletedData struct {
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// OpportunityAcceptedData is the payload for an opportunity.accepted event.
type OpportunityAcceptedData struct {
	OpportunityID string    `json:"opportunity_id"`
	SessionID     string    `json:"session_id,omitempty"`
	AcceptedAt    time.Time `json:"accepted_at"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes onboarding domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the onboarding service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, subject, subjectType, sessionID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, subject, subjectType, SourceOnboardingService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).WithSession(sessionID)

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("subject", subject),
	)
	return nil
}

// PublishPhoneVerified publishes an onboarding.phone_verified event.
func (p *Producer) PublishPhoneVerified(ctx context.Context, userID, sessionID string, at time.Time) error {
	return p.publish(ctx, TopicPhoneVerified, userID, SubjectUser, sessionID, PhoneVerifiedData{
		UserID:     userID,
		SessionID:  sessionID,
		VerifiedAt: at,
	})
}

// PublishOnboardingCompleted publishes an onboarding.completed event.
func (p *Producer) PublishOnboardingCompleted(ctx context.Context, userID, sessionID string, at time.Time) error {
	return p.publish(ctx, TopicOnboardingCompleted, userID, SubjectUser, sessionID, OnboardingCompletedData{
		UserID:      userID,
		SessionID:   sessionID,
		CompletedAt: at,
	})
}

// PublishOpportunityAccepted publishes an opportunity.accepted event.
func (p *Producer) PublishOpportunityAccepted(ctx context.Context, opportunityID, sessionID string) error {
	return p.publish(ctx, TopicOpportunityAccepted, opportunityID, SubjectOpportunity, sessionID, OpportunityAcceptedData{
		OpportunityID: opportunityID,
		SessionID:     sessionID,
		AcceptedAt:    time.Now().UTC(),
	})
}

// Observe turns successful funnel milestones into domain events. Publish
// failures are logged only.
func (p *Producer) Observe(ctx context.Context, ev domain.FunnelEvent) {
	if ev.Outcome != domain.OutcomeOK {
		return
	}

	var err error
	switch ev.Stage {
	case domain.FunnelPhoneVerified:
		err = p.PublishPhoneVerified(ctx, ev.UserID, ev.SessionID, ev.CreatedAt)
	case domain.FunnelCompleted:
		err = p.PublishOnboardingCompleted(ctx, ev.UserID, ev.SessionID, ev.CreatedAt)
	default:
		return
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish onboarding event",
			slog.String("stage", string(ev.Stage)),
			slog.String("error", err.Error()),
		)
	}
}
