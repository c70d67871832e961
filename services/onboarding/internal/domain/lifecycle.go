package domain

import "time"

// RequestStatus is the backend-driven state of a requester's request.
type RequestStatus string

const (
	RequestMatching         RequestStatus = "matching"
	RequestAwaitingApproval RequestStatus = "awaiting_approval"
	RequestInProgress       RequestStatus = "in_progress"
	RequestCompleted        RequestStatus = "completed"
)

// MatchStatus is the state of a suggested candidate for a request.
type MatchStatus string

const (
	MatchSuggested    MatchStatus = "suggested"
	MatchOutreachSent MatchStatus = "outreach_sent"
	MatchAccepted     MatchStatus = "accepted"
	MatchRejected     MatchStatus = "rejected"
	MatchDeclined     MatchStatus = "declined"
)

// OutreachStatus is the state of an operator-logged recruitment action.
type OutreachStatus string

const (
	OutreachPending   OutreachStatus = "pending"
	OutreachContacted OutreachStatus = "contacted"
	OutreachJoined    OutreachStatus = "joined"
	OutreachDeclined  OutreachStatus = "declined"
)

// Action names exposed to clients.
const (
	ActionApprove = "approve"
	ActionSkip    = "skip"
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// Request is a requester's ask for a connection.
type Request struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	MatchCount  int           `json:"match_count,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Candidate is the public snapshot of a matched user.
type Candidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location,omitempty"`
	Bio      string   `json:"bio,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	PhotoURL string   `json:"photo_url,omitempty"`
}

// Match links a request to a candidate.
type Match struct {
	ID        string      `json:"id"`
	RequestID string      `json:"request_id"`
	Candidate Candidate   `json:"candidate"`
	Status    MatchStatus `json:"status"`
	Score     float64     `json:"score,omitempty"`
}

// Outreach is an operator-only recruitment record.
type Outreach struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Platform   string         `json:"platform"`
	ProfileURL string         `json:"profile_url"`
	RequestID  string         `json:"request_id,omitempty"`
	Status     OutreachStatus `json:"status"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Opportunity is an inbound connection request shown to an invitee.
type Opportunity struct {
	ID       string    `json:"id"`
	FromUser Candidate `json:"from_user"`
	Request  Request   `json:"request"`
}

// Connection is the symmetric link created by accepting an opportunity.
type Connection struct {
	ID          string    `json:"id"`
	User        Candidate `json:"user"`
	ConnectedAt time.Time `json:"connected_at"`
}
