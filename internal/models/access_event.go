package models

import "time"

// AccessEvent is a single audit log entry.
type AccessEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`     // ACCESS_GRANTED | ACCESS_DENIED | SIGN_IN | SIGN_UP
	Username    string    `json:"username"` // principal from the token, or the signing-in user
	Resource    string    `json:"resource,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

const (
	EventAccessGranted = "ACCESS_GRANTED"
	EventAccessDenied  = "ACCESS_DENIED"
	EventSignIn        = "SIGN_IN"
	EventSignUp        = "SIGN_UP"
)
