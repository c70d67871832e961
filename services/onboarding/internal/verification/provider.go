package verification

import (
	"context"
	"time"
)

// IdentityProof is what a confirmed challenge yields: evidence that the
// caller controls Phone. Token is the provider's signed assertion, if any.
type IdentityProof struct {
	Phone       string
	ChallengeID string
	Token       string
	VerifiedAt  time.Time
}

// Provider creates challenge widgets bound to a UI anchor.
type Provider interface {
	NewWidget(ctx context.Context, anchor string) (Widget, error)
}

// Widget is one live anti-abuse challenge instance.
type Widget interface {
	SendCode(ctx context.Context, e164 string) (Challenge, error)
	Clear(ctx context.Context) error
}

// Challenge confirms the code delivered by SMS.
type Challenge interface {
	ID() string
	Confirm(ctx context.Context, code string) (*IdentityProof, error)
}
