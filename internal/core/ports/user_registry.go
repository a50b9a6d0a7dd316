package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRegistry owns user records. Implementations normalise emails with
// domain.NormalizeEmail and must make the uniqueness check in Insert atomic
// with the write.
type UserRegistry interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no user has id.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Insert assigns a fresh id and stores the user, or returns
	// domain.ErrEmailTaken if the email is already registered.
	Insert(ctx context.Context, candidate domain.NewUser) (*domain.User, error)
}
