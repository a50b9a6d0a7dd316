package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// AuditRepository persists authentication events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService processes a single authentication event.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

// AuditPublisher hands events off for asynchronous processing. Publish must
// not block the request path.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}
