package bolt

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

// Buckets used by the account repository.
var (
	BucketAccounts  = []byte("accounts")
	BucketUsernames = []byte("usernames")
)

// BucketNames lists the buckets that must exist before the repository is used.
func BucketNames() []string {
	return []string{string(BucketAccounts), string(BucketUsernames)}
}

type accountRepository struct {
	db *bolt.DB
}

// NewAccountRepository returns an account repository stored in an embedded
// BoltDB file. The usernames bucket maps username to account id and is written
// in the same transaction as the account itself.
func NewAccountRepository(db *bolt.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		account, err = getAccount(tx, []byte(id))
		return err
	})
	return account, err
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account *domain.Account
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(BucketUsernames).Get([]byte(username))
		if id == nil {
			return domain.ErrAccountNotFound
		}
		var err error
		account, err = getAccount(tx, id)
		return err
	})
	return account, err
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var found *domain.Account
	err := r.db.View(func(tx *bolt.Tx) error {
		return forEachAccount(tx, func(account *domain.Account) error {
			if account.Email != email {
				return nil
			}
			if found == nil || compareCreated(*account, *found) < 0 {
				found = account
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrAccountNotFound
	}
	return found, nil
}

func (r *accountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(BucketUsernames).Get([]byte(username)) != nil
		return nil
	})
	return exists, err
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return forEachAccount(tx, func(account *domain.Account) error {
			accounts = append(accounts, *account)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(accounts, compareCreated)
	return accounts, nil
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidPayload
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Touch()

	return r.db.Update(func(tx *bolt.Tx) error {
		usernames := tx.Bucket(BucketUsernames)
		if usernames.Get([]byte(account.Username)) != nil {
			return domain.ErrDuplicateUsername
		}
		if err := usernames.Put([]byte(account.Username), []byte(account.ID)); err != nil {
			return err
		}
		return putAccount(tx, account)
	})
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	if account == nil || account.ID == "" {
		return domain.ErrInvalidPayload
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		current, err := getAccount(tx, []byte(account.ID))
		if err != nil {
			return err
		}

		if current.Username != account.Username {
			usernames := tx.Bucket(BucketUsernames)
			owner := usernames.Get([]byte(account.Username))
			if owner != nil && !bytes.Equal(owner, []byte(account.ID)) {
				return domain.ErrDuplicateUsername
			}
			if err := usernames.Delete([]byte(current.Username)); err != nil {
				return err
			}
			if err := usernames.Put([]byte(account.Username), []byte(account.ID)); err != nil {
				return err
			}
		}

		account.CreatedAt = current.CreatedAt
		account.Touch()
		return putAccount(tx, account)
	})
}

func (r *accountRepository) Activate(ctx context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		account, err := getAccount(tx, []byte(id))
		if err != nil {
			return err
		}
		if !account.Activate() {
			return domain.ErrAlreadyVerified
		}
		account.Touch()
		return putAccount(tx, account)
	})
}

func (r *accountRepository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(BucketAccounts) == nil {
			return fmt.Errorf("bucket %s missing", BucketAccounts)
		}
		return nil
	})
}

func getAccount(tx *bolt.Tx, id []byte) (*domain.Account, error) {
	raw := tx.Bucket(BucketAccounts).Get(id)
	if raw == nil {
		return nil, domain.ErrAccountNotFound
	}
	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	return &account, nil
}

func putAccount(tx *bolt.Tx, account *domain.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return tx.Bucket(BucketAccounts).Put([]byte(account.ID), payload)
}

func forEachAccount(tx *bolt.Tx, fn func(*domain.Account) error) error {
	return tx.Bucket(BucketAccounts).ForEach(func(k, v []byte) error {
		var account domain.Account
		if err := json.Unmarshal(v, &account); err != nil {
			return fmt.Errorf("decode account %s: %w", k, err)
		}
		return fn(&account)
	})
}

func compareCreated(a, b domain.Account) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
