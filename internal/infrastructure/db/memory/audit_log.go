package memory

import (
	"context"
	"sync"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// DefaultAuditCapacity bounds the in-memory audit log.
const DefaultAuditCapacity = 10_000

// AuditLog is a ports.AuditRepository held in memory. Once full, the oldest
// event is discarded for every new one.
type AuditLog struct {
	mu       sync.Mutex
	capacity int
	events   []domain.AuthEvent
}

// NewAuditLog keeps at most capacity events; non-positive means DefaultAuditCapacity.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{capacity: capacity}
}

func (l *AuditLog) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, *event)
	return nil
}

// Events returns a copy of everything retained, oldest first.
func (l *AuditLog) Events() []domain.AuthEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AuthEvent(nil), l.events...)
}
