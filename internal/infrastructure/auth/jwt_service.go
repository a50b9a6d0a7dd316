package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// DefaultTokenTTL applies when NewJWTService is given a non-positive ttl.
const DefaultTokenTTL = 24 * time.Hour

var (
	errEmptyToken    = errors.New("empty token")
	errMissingClaims = errors.New("token missing subject or email")
)

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService implements ports.TokenService with HS256-signed JWTs.
type JWTService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// JWTOption customises a JWTService.
type JWTOption func(*JWTService)

// WithIssuer sets the iss claim written on issue and required on verify.
func WithIssuer(issuer string) JWTOption {
	return func(s *JWTService) { s.issuer = issuer }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) JWTOption {
	return func(s *JWTService) { s.now = now }
}

func NewJWTService(key []byte, ttl time.Duration, opts ...JWTOption) (*JWTService, error) {
	if len(key) == 0 {
		return nil, errors.New("jwt signing key must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &JWTService{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(parserOpts...)

	return s, nil
}

// TTL reports the lifetime given to issued tokens.
func (s *JWTService) TTL() time.Duration { return s.ttl }

func (s *JWTService) Issue(subjectID, email string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first and only then the registered claims, so
// a forged token is always SignatureInvalid and a genuine stale one Expired.
func (s *JWTService) Verify(token string) (*domain.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &domain.TokenError{Kind: domain.TokenMalformed, Err: errEmptyToken}
	}

	var claims tokenClaims
	if _, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}); err != nil {
		return nil, &domain.TokenError{Kind: classify(err), Err: err}
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, &domain.TokenError{Kind: domain.TokenMalformed, Err: errMissingClaims}
	}

	out := &domain.Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func classify(err error) domain.TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.TokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenExpired
	default:
		// malformed segments, missing exp, wrong issuer, iat in the future
		return domain.TokenMalformed
	}
}
