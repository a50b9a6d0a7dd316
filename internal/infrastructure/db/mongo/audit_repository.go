package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// InsertEvent appends an event to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, auditDocument(event, time.Now().UTC())); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func auditDocument(event *domain.AuthEvent, processedAt time.Time) bson.M {
	doc := bson.M{
		"kind":         string(event.Kind),
		"email":        event.Email,
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": processedAt,
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	return doc
}
