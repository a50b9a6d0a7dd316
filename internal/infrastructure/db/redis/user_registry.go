package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// insertUser claims the email key and writes the user record in one atomic
// step. Returns 0 when the email is already taken.
//
// KEYS[1] email key, KEYS[2] user key; ARGV[1] user id, ARGV[2] user JSON.
var insertUser = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

// UserRegistry implements ports.UserRegistry on Redis.
//
// Key layout:
//
//	identity:user:<id>           JSON user record
//	identity:user-email:<email>  id of the owning user
type UserRegistry struct {
	client *redis.Client
	now    func() time.Time
}

func NewUserRegistry(client *redis.Client) *UserRegistry {
	return &UserRegistry{client: client, now: time.Now}
}

type redisUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func (r *UserRegistry) Insert(ctx context.Context, candidate domain.NewUser) (*domain.User, error) {
	rec := redisUser{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(candidate.Email),
		Name:         candidate.Name,
		PasswordHash: candidate.PasswordHash,
		CreatedAt:    r.now().Unix(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}

	ok, err := insertUser.Run(ctx, r.client,
		[]string{emailKey(rec.Email), userKey(rec.ID)},
		rec.ID, payload,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if ok == 0 {
		return nil, domain.ErrEmailTaken
	}
	return rec.toDomain(), nil
}

func (r *UserRegistry) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, emailKey(domain.NormalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *UserRegistry) FindByID(ctx context.Context, id string) (*domain.User, error) {
	raw, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var rec redisUser
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

func (r *UserRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (rec redisUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           rec.ID,
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
	}
	if rec.CreatedAt != 0 {
		u.CreatedAt = time.Unix(rec.CreatedAt, 0).UTC()
	}
	return u
}

func userKey(id string) string {
	return keyPrefix + "user:" + id
}

func emailKey(email string) string {
	return keyPrefix + "user-email:" + email
}
