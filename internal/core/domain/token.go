package domain

import (
	"fmt"
	"time"
)

// Claims is the trusted content of a verified bearer token.
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenErrorKind classifies why a token was rejected.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenSignatureInvalid
	TokenExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenSignatureInvalid:
		return "signature_invalid"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenError is the only error a TokenService returns from Verify.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }
