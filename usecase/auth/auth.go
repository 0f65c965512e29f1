package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/security"
	"github.com/fastygo/accounts/pkg/logger"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/usecase"
)

// TokenIssuer mints and validates the login token pair.
type TokenIssuer interface {
	IssueAccess(userID string) (string, error)
	IssueRefresh(userID, sessionID string) (string, error)
	Parse(token, tokenType string) (*security.Claims, error)
	RefreshTTL() time.Duration
}

// UseCase issues and refreshes authentication tokens.
type UseCase struct {
	users    repository.AccountRepository
	sessions repository.SessionRepository
	hasher   usecase.PasswordHasher
	tokens   TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

// New creates the auth use case.
func New(
	users repository.AccountRepository,
	sessions repository.SessionRepository,
	hasher usecase.PasswordHasher,
	tokens TokenIssuer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks credentials and issues an access/refresh pair. Inactive
// accounts are refused with the same error as a wrong password.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	account, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrBadCredentials
		}
		return nil, err
	}
	if !uc.hasher.Check(password, account.PasswordHash) || !account.IsActive {
		return nil, domain.ErrBadCredentials
	}

	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.tokens.RefreshTTL()),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	refresh, err := uc.tokens.IssueRefresh(account.ID, session.ID)
	if err != nil {
		return nil, err
	}
	access, err := uc.tokens.IssueAccess(account.ID)
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("login succeeded", zap.String("account_id", account.ID))
	return &domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (uc *UseCase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := uc.tokens.Parse(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return "", domain.ErrTokenInvalid
	}

	session, err := uc.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", domain.ErrTokenInvalid
		}
		return "", err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return "", domain.ErrTokenInvalid
	}
	if session.UserID != claims.UserID {
		return "", domain.ErrTokenInvalid
	}

	if _, err := uc.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", domain.ErrTokenInvalid
		}
		return "", err
	}

	return uc.tokens.IssueAccess(claims.UserID)
}
