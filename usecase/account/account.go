package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/logger"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/usecase"
)

const (
	verificationPath    = "/api/verify-email/"
	verificationSubject = "Vérification de votre email"
	verificationBody    = "Cliquez sur le lien suivant pour vérifier votre email : %s"
)

// SignupInput is a registration request. Only the username is required to be
// non-empty.
type SignupInput struct {
	Username string
	Password string
	Email    string
}

// UseCase implements registration, email verification and profile management.
type UseCase struct {
	accounts repository.AccountRepository
	hasher   usecase.PasswordHasher
	signer   usecase.Signer
	notifier usecase.Notifier
	baseURL  string
	logger   *zap.Logger
}

// New creates the account use case. baseURL prefixes the emailed verification link.
func New(
	accounts repository.AccountRepository,
	hasher usecase.PasswordHasher,
	signer usecase.Signer,
	notifier usecase.Notifier,
	baseURL string,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts: accounts,
		hasher:   hasher,
		signer:   signer,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// Signup creates an inactive account and mails its verification link. A mail
// failure is returned after the account has been stored; the account stays.
func (uc *UseCase) Signup(ctx context.Context, in SignupInput) error {
	log := logger.WithRequestID(ctx, uc.logger)

	if in.Username == "" {
		return domain.ErrInvalidPayload
	}

	exists, err := uc.accounts.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateUsername
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     false,
	}
	if err := uc.accounts.Create(ctx, account); err != nil {
		return err
	}
	log.Info("account created", zap.String("account_id", account.ID), zap.String("username", account.Username))

	if err := uc.sendVerification(ctx, account); err != nil {
		log.Error("verification email failed", zap.String("account_id", account.ID), zap.Error(err))
		return err
	}
	return nil
}

// VerifyEmail activates the account bound to token. Bad signatures and unknown
// emails both yield domain.ErrInvalidLink.
func (uc *UseCase) VerifyEmail(ctx context.Context, token string) error {
	log := logger.WithRequestID(ctx, uc.logger)

	email, err := uc.signer.Unsign(token)
	if err != nil {
		log.Debug("verification token rejected", zap.Error(err))
		return domain.ErrInvalidLink
	}

	account, err := uc.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidLink
		}
		return err
	}

	if account.IsActive {
		return domain.ErrAlreadyVerified
	}
	// A concurrent verification may win between the read and this write; the
	// store then reports domain.ErrAlreadyVerified.
	if err := uc.accounts.Activate(ctx, account.ID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidLink
		}
		return err
	}

	log.Info("account activated", zap.String("account_id", account.ID))
	return nil
}

// ListUsers returns every account in creation order, public fields only.
func (uc *UseCase) ListUsers(ctx context.Context) ([]domain.PublicAccount, error) {
	accounts, err := uc.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicAccount, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].Public())
	}
	return out, nil
}

// GetProfile returns the caller's public profile.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (domain.PublicAccount, error) {
	account, err := uc.authenticated(ctx, userID)
	if err != nil {
		return domain.PublicAccount{}, err
	}
	return account.Public(), nil
}

// UpdateProfile applies the non-empty members of patch to the caller's account.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	account, err := uc.authenticated(ctx, userID)
	if err != nil {
		return err
	}

	if patch.Username != nil && *patch.Username != "" {
		account.Username = *patch.Username
	}
	if patch.Email != nil && *patch.Email != "" {
		account.Email = *patch.Email
	}
	if patch.Password != nil && *patch.Password != "" {
		hash, err := uc.hasher.Hash(*patch.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = hash
	}

	if err := uc.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrUnauthenticated
		}
		return err
	}

	logger.WithRequestID(ctx, uc.logger).Info("profile updated", zap.String("account_id", account.ID))
	return nil
}

// VerificationLink builds the link mailed for token.
func (uc *UseCase) VerificationLink(token string) string {
	return uc.baseURL + verificationPath + token
}

func (uc *UseCase) sendVerification(ctx context.Context, account *domain.Account) error {
	token, err := uc.signer.Sign(account.Email)
	if err != nil {
		return fmt.Errorf("sign verification token: %w", err)
	}

	msg := usecase.Message{
		To:      account.Email,
		Subject: verificationSubject,
		Body:    fmt.Sprintf(verificationBody, uc.VerificationLink(token)),
	}
	if err := uc.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (uc *UseCase) authenticated(ctx context.Context, userID string) (*domain.Account, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	account, err := uc.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return account, nil
}
