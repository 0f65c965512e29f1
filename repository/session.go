package repository

import (
	"context"

	"github.com/fastygo/accounts/domain"
)

// SessionRepository keeps refresh-token sessions. Get returns
// domain.ErrSessionNotFound once a session is deleted or has expired.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
