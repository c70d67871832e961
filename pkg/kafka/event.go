package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix namespaces every topic this module publishes to.
const TopicPrefix = "linkwise"

// SchemaVersion is stamped on every envelope. Bump it when Event changes shape.
const SchemaVersion = 1

// Topic builds "<prefix>.<domain>.<action>", e.g. linkwise.onboarding.completed.
func Topic(domain, action string) string {
	return strings.Join([]string{TopicPrefix, domain, action}, ".")
}

// Event is the JSON envelope around every published payload. Subject is the
// entity the event is about and doubles as the partition key.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Subject       string          `json:"subject"`
	SubjectType   string          `json:"subject_type"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id and the current UTC time.
func NewEvent(eventType, subject, subjectType, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Subject:       subject,
		SubjectType:   subjectType,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Source:        source,
		Data:          raw,
	}, nil
}

// WithCorrelationID sets the request correlation id.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithSession records the browser session the event originated from.
func (e *Event) WithSession(sid string) *Event {
	e.SessionID = sid
	return e
}

// Marshal encodes the envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an envelope. Envelopes from a newer schema are
// rejected so a consumer never half-reads them.
func UnmarshalEvent(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("decode event %s: schema version %d is newer than %d", e.ID, e.SchemaVersion, SchemaVersion)
	}
	return &e, nil
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
