// Package memory provides process-local implementations of the storage ports.
// Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRegistry is a mutex-guarded ports.UserRegistry keyed by id with a
// secondary index on the normalised email.
type UserRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string // email -> id
	now     func() time.Time
}

func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRegistry) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRegistry) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// Insert checks and writes under one write lock.
func (r *UserRegistry) Insert(_ context.Context, candidate domain.NewUser) (*domain.User, error) {
	email := domain.NormalizeEmail(candidate.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrEmailTaken
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         candidate.Name,
		PasswordHash: candidate.PasswordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID

	return cloneUser(u), nil
}

// Len reports the number of stored users.
func (r *UserRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Ping always succeeds; it lets the registry sit behind a readiness probe.
func (r *UserRegistry) Ping(context.Context) error { return nil }

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
