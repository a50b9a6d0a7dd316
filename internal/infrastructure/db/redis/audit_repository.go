package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const (
	auditStream    = keyPrefix + "auth_events"
	auditStreamCap = 100_000
)

// AuditRepository appends authentication events to a capped Redis stream.
type AuditRepository struct {
	client *redis.Client
}

func NewAuditRepository(client *redis.Client) *AuditRepository {
	return &AuditRepository{client: client}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: auditStream,
		MaxLen: auditStreamCap,
		Values: map[string]any{
			"kind":        string(event.Kind),
			"email":       event.Email,
			"user_id":     event.UserID,
			"reason":      event.Reason,
			"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
