package events

import (
	"time"

	"github.com/spec-kit/courtweb-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignInAccepted   EventType = "signin_accepted"
	EventSignInDenied     EventType = "signin_denied"
	EventSessionSignedOut EventType = "session_signed_out"
	EventSessionsSwept    EventType = "sessions_swept"
)

// Event represents an audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SignInAcceptedPayload payload.
type SignInAcceptedPayload struct {
	ExternalID   string              `json:"external_id"`
	Capabilities domain.Capabilities `json:"capabilities"`
}

// SignInDeniedPayload payload.
type SignInDeniedPayload struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// SessionsSweptPayload payload.
type SessionsSweptPayload struct {
	Count int64 `json:"count"`
}
