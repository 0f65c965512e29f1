package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

const (
	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

type sessionRepository struct {
	client redislib.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionRepository stores refresh sessions as Redis hashes that expire
// together with the session. ttl applies when a session has no usable expiry.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	session := &domain.Session{ID: id, UserID: fields[fieldUserID]}
	if session.CreatedAt, err = parseTime(fields[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if session.ExpiresAt, err = parseTime(fields[fieldExpiresAt]); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}

	key := r.key(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, session.UserID,
			fieldCreatedAt, session.CreatedAt.UTC().Format(time.RFC3339Nano),
			fieldExpiresAt, session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *sessionRepository) key(id string) string {
	return r.prefix + id
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
