package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/pkg/metrics"
)

// AccessPolicy decides which users an authenticated caller may retrieve.
type AccessPolicy string

const (
	// AccessSelf only lets a token's subject read its own record.
	AccessSelf AccessPolicy = "self"
	// AccessAny lets any authenticated caller read any record.
	AccessAny AccessPolicy = "any"
)

// Caller-facing messages. Unknown e-mail and wrong password share one
// message, as do bad signatures and expired tokens; the precise reason only
// reaches logs and the audit trail.
const (
	MsgEmailTaken      = "E-mail already exists."
	MsgInvalidLogin    = "Invalid e-mail or password."
	MsgMissingToken    = "Missing Authorization token."
	MsgMalformedToken  = "Malformed Authorization token."
	MsgInvalidToken    = "Invalid or expired token."
	MsgForbidden       = "Access forbidden."
	MsgUserNotFound    = "User not found."
	MsgInternal        = "Internal server error."
	msgMissingFields   = "email, name and password are required."
	msgPasswordTooLong = "password must be at most 72 bytes."
)

// timingPassword is hashed once and verified against on unknown-email logins
// so they cost the same as wrong-password logins.
const timingPassword = "identity-service/timing-equaliser"

// AuthService implements ports.AuthService: registration, login and
// token-gated user retrieval.
type AuthService struct {
	users  ports.UserRegistry
	hasher ports.CredentialHasher
	tokens ports.TokenService
	audit  ports.AuditPublisher
	policy AccessPolicy
	log    zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithAccessPolicy overrides the default AccessSelf policy.
func WithAccessPolicy(p AccessPolicy) Option {
	return func(s *AuthService) { s.policy = p }
}

// WithAuditPublisher sends every use-case event to p.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *AuthService) { s.audit = p }
}

func NewAuthService(
	users ports.UserRegistry,
	hasher ports.CredentialHasher,
	tokens ports.TokenService,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		policy: AccessSelf,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. The password is hashed before the registry is
// asked to insert, so no registry lock is held while bcrypt runs.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	res := s.register(ctx, in)
	metrics.UseCaseOutcomesTotal.WithLabelValues("register", res.Outcome.String()).Inc()
	return res
}

func (s *AuthService) register(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return ports.RegisterResult{Outcome: ports.OutcomeInvalid, Message: msgMissingFields}
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		return ports.RegisterResult{Outcome: ports.OutcomeInvalid, Message: msgPasswordTooLong}
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.publish(domain.AuthEvent{Kind: domain.EventRegistrationConflict, Email: email})
		return ports.RegisterResult{Outcome: ports.OutcomeConflict, Message: MsgEmailTaken}
	case !errors.Is(err, domain.ErrUserNotFound):
		s.log.Error().Err(err).Str("use_case", "register").Msg("lookup by email failed")
		return ports.RegisterResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		s.log.Error().Err(err).Str("use_case", "register").Msg("password hashing failed")
		return ports.RegisterResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
	}

	user, err := s.users.Insert(ctx, domain.NewUser{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		// A concurrent registration can win between the lookup and the insert.
		if errors.Is(err, domain.ErrEmailTaken) {
			s.publish(domain.AuthEvent{Kind: domain.EventRegistrationConflict, Email: email})
			return ports.RegisterResult{Outcome: ports.OutcomeConflict, Message: MsgEmailTaken}
		}
		s.log.Error().Err(err).Str("use_case", "register").Msg("insert user failed")
		return ports.RegisterResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
	}

	s.publish(domain.AuthEvent{Kind: domain.EventUserRegistered, Email: user.Email, UserID: user.ID})
	return ports.RegisterResult{Outcome: ports.OutcomeCreated, User: user.Public()}
}

// Login exchanges valid credentials for a bearer token. Unknown emails and
// wrong passwords produce identical results.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) ports.LoginResult {
	res := s.login(ctx, in)
	metrics.UseCaseOutcomesTotal.WithLabelValues("login", res.Outcome.String()).Inc()
	return res
}

func (s *AuthService) login(ctx context.Context, in ports.LoginInput) ports.LoginResult {
	email := domain.NormalizeEmail(in.Email)
	unauthorized := ports.LoginResult{Outcome: ports.OutcomeUnauthorized, Message: MsgInvalidLogin}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("use_case", "login").Msg("lookup by email failed")
			return ports.LoginResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
		}
		s.equaliseTiming(in.Password)
		s.publish(domain.AuthEvent{Kind: domain.EventLoginFailed, Email: email, Reason: domain.ReasonUnknownEmail})
		return unauthorized
	}

	var matched bool
	if in.Password == "" || len(in.Password) > domain.MaxPasswordBytes {
		// Every failure path runs exactly one bcrypt compare.
		s.equaliseTiming(in.Password)
	} else {
		matched = s.verify(in.Password, user.PasswordHash)
	}
	if !matched {
		s.publish(domain.AuthEvent{Kind: domain.EventLoginFailed, Email: email, UserID: user.ID, Reason: domain.ReasonWrongPassword})
		return unauthorized
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.log.Error().Err(err).Str("use_case", "login").Str("user_id", user.ID).Msg("token issuance failed")
		return ports.LoginResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
	}

	s.publish(domain.AuthEvent{Kind: domain.EventLoginSucceeded, Email: user.Email, UserID: user.ID})
	return ports.LoginResult{Outcome: ports.OutcomeOK, Token: token}
}

// RetrieveProtectedUser returns the user named by in.UserID to a caller
// presenting a valid bearer token, subject to the configured AccessPolicy.
func (s *AuthService) RetrieveProtectedUser(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult {
	res := s.retrieve(ctx, in)
	metrics.UseCaseOutcomesTotal.WithLabelValues("retrieve_user", res.Outcome.String()).Inc()
	return res
}

func (s *AuthService) retrieve(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult {
	if strings.TrimSpace(in.AuthorizationHeader) == "" {
		s.publish(domain.AuthEvent{Kind: domain.EventAccessDenied, Reason: domain.ReasonMissingHeader})
		return ports.RetrieveUserResult{Outcome: ports.OutcomeUnauthorized, Message: MsgMissingToken}
	}

	raw, ok := bearerToken(in.AuthorizationHeader)
	if !ok {
		s.publish(domain.AuthEvent{Kind: domain.EventAccessDenied, Reason: domain.ReasonBadScheme})
		return ports.RetrieveUserResult{Outcome: ports.OutcomeUnauthorized, Message: MsgMalformedToken}
	}

	claims, err := s.tokens.Verify(raw)
	if err != nil {
		kind := domain.TokenMalformed
		var te *domain.TokenError
		if errors.As(err, &te) {
			kind = te.Kind
		}
		metrics.TokenRejectionsTotal.WithLabelValues(kind.String()).Inc()
		s.log.Debug().Err(err).Str("kind", kind.String()).Msg("bearer token rejected")
		s.publish(domain.AuthEvent{Kind: domain.EventAccessDenied, Reason: kind.String()})

		msg := MsgInvalidToken
		if kind == domain.TokenMalformed {
			msg = MsgMalformedToken
		}
		return ports.RetrieveUserResult{Outcome: ports.OutcomeUnauthorized, Message: msg}
	}

	if s.policy != AccessAny && claims.Subject != in.UserID {
		s.publish(domain.AuthEvent{Kind: domain.EventAccessDenied, Email: claims.Email, UserID: claims.Subject, Reason: domain.ReasonSubjectMismatch})
		return ports.RetrieveUserResult{Outcome: ports.OutcomeForbidden, Message: MsgForbidden}
	}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.publish(domain.AuthEvent{Kind: domain.EventAccessDenied, Email: claims.Email, UserID: claims.Subject, Reason: domain.ReasonUnknownUser})
			return ports.RetrieveUserResult{Outcome: ports.OutcomeNotFound, Message: MsgUserNotFound}
		}
		s.log.Error().Err(err).Str("use_case", "retrieve_user").Str("user_id", in.UserID).Msg("lookup by id failed")
		return ports.RetrieveUserResult{Outcome: ports.OutcomeInternal, Message: MsgInternal}
	}

	s.publish(domain.AuthEvent{Kind: domain.EventAccessGranted, Email: claims.Email, UserID: claims.Subject})
	return ports.RetrieveUserResult{Outcome: ports.OutcomeOK, User: user.Public()}
}

func (s *AuthService) hash(password string) (string, error) {
	timer := prometheus.NewTimer(metrics.PasswordHashDuration.WithLabelValues("hash"))
	defer timer.ObserveDuration()
	return s.hasher.Hash(password)
}

func (s *AuthService) verify(password, hash string) bool {
	timer := prometheus.NewTimer(metrics.PasswordHashDuration.WithLabelValues("verify"))
	defer timer.ObserveDuration()
	return s.hasher.Verify(password, hash)
}

func (s *AuthService) equaliseTiming(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare timing hash")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.verify(password, s.dummyHash)
	}
}

func (s *AuthService) publish(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	s.audit.Publish(event)
}
