package domain

import "time"

// AuthEventType identifies the kind of authentication activity recorded in
// the audit trail.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginRejected  AuthEventType = "login_rejected"
	EventRegistered     AuthEventType = "registered"
	EventLoggedOut      AuthEventType = "logged_out"
)

// AuthEvent is a single audit record. Reason is only set for rejections
// and stays internal to the audit trail.
type AuthEvent struct {
	Type       AuthEventType
	Identifier string
	Strategy   string
	Reason     RejectReason
	Timestamp  time.Time
}
