package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// Outcome tags which variant of a use-case result is populated.
type Outcome int

const (
	OutcomeOK Outcome = iota + 1
	OutcomeCreated
	OutcomeConflict
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeNotFound
	OutcomeInvalid
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeCreated:
		return "created"
	case OutcomeConflict:
		return "conflict"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// RegisterInput is the DTO passed from the transport layer to Register.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// RegisterResult is Created (User set) or Conflict/Invalid/Internal (Message set).
type RegisterResult struct {
	Outcome Outcome
	User    *domain.PublicUser
	Message string
}

// LoginInput is the DTO passed from the transport layer to Login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is OK (Token set) or Unauthorized/Invalid/Internal (Message set).
type LoginResult struct {
	Outcome Outcome
	Token   string
	Message string
}

// RetrieveUserInput carries the raw Authorization header (empty when absent)
// and the requested user id.
type RetrieveUserInput struct {
	AuthorizationHeader string
	UserID              string
}

// RetrieveUserResult is OK (User set) or Unauthorized/Forbidden/NotFound/Internal.
type RetrieveUserResult struct {
	Outcome Outcome
	User    *domain.PublicUser
	Message string
}

// AuthService exposes the three authentication use cases. It never returns
// errors: every failure is folded into the result's Outcome.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) RegisterResult
	Login(ctx context.Context, in LoginInput) LoginResult
	RetrieveProtectedUser(ctx context.Context, in RetrieveUserInput) RetrieveUserResult
}
