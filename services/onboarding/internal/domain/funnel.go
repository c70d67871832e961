package domain

import "time"

// FunnelStage names a point in the onboarding funnel.
type FunnelStage string

const (
	FunnelCodeRequested   FunnelStage = "code_requested"
	FunnelPhoneVerified   FunnelStage = "phone_verified"
	FunnelProfileSaved    FunnelStage = "profile_saved"
	FunnelLinkedInResumed FunnelStage = "linkedin_resumed"
	FunnelLinkedInFailed  FunnelStage = "linkedin_failed"
	FunnelReset           FunnelStage = "reset"
	FunnelCompleted       FunnelStage = "completed"
)

// Funnel outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// FunnelEvent is one audited onboarding step. It never stores phone numbers,
// codes or tokens.
type FunnelEvent struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id,omitempty"`
	Stage     FunnelStage `json:"stage"`
	Outcome   string      `json:"outcome"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// FunnelStageCount aggregates events per stage and outcome.
type FunnelStageCount struct {
	Stage   FunnelStage `json:"stage"`
	Outcome string      `json:"outcome"`
	Count   int         `json:"count"`
}
