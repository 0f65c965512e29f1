package repository

import (
	"context"

	"github.com/fastygo/accounts/domain"
)

// AccountRepository persists accounts. Create and Update must reject a
// username already held by another account with domain.ErrDuplicateUsername,
// atomically with the write.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	// GetByEmail returns the earliest-created account with the email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	// Activate sets is_active on an inactive account in a single conditional
	// write. It returns domain.ErrAlreadyVerified when the account is already
	// active, so only one of two concurrent activations succeeds.
	Activate(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
