package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

const usernameConstraint = "accounts_username_key"

const accountColumns = `id, username, email, password_hash, is_active, created_at, updated_at`

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates a Postgres-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, username))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 ORDER BY created_at, id LIMIT 1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *accountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidPayload
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO accounts (id, username, email, password_hash, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), NOW())
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.IsActive,
		nullTime(account.CreatedAt),
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err, usernameConstraint) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	if account == nil || account.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE accounts
	SET username = $2,
		email = $3,
		password_hash = $4,
		is_active = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.IsActive,
	).Scan(&account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		if isUniqueViolation(err, usernameConstraint) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (r *accountRepository) Activate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET is_active = TRUE, updated_at = NOW() WHERE id = $1 AND is_active = FALSE`, id)
	if err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	if !exists {
		return domain.ErrAccountNotFound
	}
	return domain.ErrAlreadyVerified
}

func (r *accountRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &account, nil
}
