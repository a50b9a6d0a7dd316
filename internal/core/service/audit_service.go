package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/pkg/metrics"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that logs, counts and persists
// events. repo may be nil, in which case events are only logged.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	// The submitted email stays out of logs; only the repository records it.
	level := zerolog.InfoLevel
	switch event.Kind {
	case domain.EventLoginFailed, domain.EventAccessDenied, domain.EventRegistrationConflict:
		level = zerolog.WarnLevel
	}

	s.log.WithLevel(level).
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("reason", event.Reason).
		Time("occurred_at", event.OccurredAt).
		Msg("auth event")

	metrics.AuditEventsTotal.WithLabelValues(string(event.Kind)).Inc()

	if s.repo == nil {
		return nil
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuditErrorsTotal.Inc()
		return fmt.Errorf("process audit event: %w", err)
	}
	return nil
}
