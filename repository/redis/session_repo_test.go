package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/accounts/domain"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *sessionRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSessionRepository(client, time.Hour).(*sessionRepository)
}

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()

	session := &domain.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, repo.Save(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())

	ttl := mr.TTL("session:s1")
	assert.True(t, ttl > 9*time.Minute && ttl <= 10*time.Minute, "unexpected ttl %s", ttl)

	assert.Equal(t, "u1", mr.HGet("session:s1", "user_id"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Millisecond)
	assert.WithinDuration(t, session.CreatedAt, got.CreatedAt, time.Millisecond)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_DefaultTTL(t *testing.T) {
	mr, repo := newTestRepo(t)

	require.NoError(t, repo.Save(context.Background(), &domain.Session{ID: "s2", UserID: "u2"}))
	assert.Equal(t, time.Hour, mr.TTL("session:s2").Round(time.Minute))
}

func TestSessionRepository_Expiry(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s3", UserID: "u3", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s3")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_CorruptRecord(t *testing.T) {
	mr, repo := newTestRepo(t)
	mr.HSet("session:bad", "user_id", "u4", "created_at", "yesterday")

	_, err := repo.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_RejectsInvalid(t *testing.T) {
	_, repo := newTestRepo(t)
	assert.ErrorIs(t, repo.Save(context.Background(), &domain.Session{}), domain.ErrInvalidPayload)
	assert.NoError(t, repo.Ping(context.Background()))
}
