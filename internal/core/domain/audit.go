package domain

import "time"

// AuthEventKind names what happened during an authentication use case.
type AuthEventKind string

const (
	EventUserRegistered       AuthEventKind = "user_registered"
	EventRegistrationConflict AuthEventKind = "registration_conflict"
	EventLoginSucceeded       AuthEventKind = "login_succeeded"
	EventLoginFailed          AuthEventKind = "login_failed"
	EventAccessGranted        AuthEventKind = "access_granted"
	EventAccessDenied         AuthEventKind = "access_denied"
)

// Internal reasons attached to failure events. They are never sent to callers.
const (
	ReasonUnknownEmail    = "unknown_email"
	ReasonWrongPassword   = "wrong_password"
	ReasonMissingHeader   = "missing_header"
	ReasonBadScheme       = "bad_scheme"
	ReasonSubjectMismatch = "subject_mismatch"
	ReasonUnknownUser     = "unknown_user"
)

// AuthEvent is one audit-trail record.
type AuthEvent struct {
	Kind       AuthEventKind
	Email      string
	UserID     string
	Reason     string // optional
	OccurredAt time.Time
}
