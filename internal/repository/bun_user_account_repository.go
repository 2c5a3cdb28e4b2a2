package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/terraconstructs/geoform/internal/db/models"
)

// BunUserAccountRepository implements UserAccountRepository using Bun ORM.
type BunUserAccountRepository struct {
	db  bun.IDB
	now func() time.Time
}

// NewBunUserAccountRepository creates a new Bun-based account repository.
func NewBunUserAccountRepository(db bun.IDB) *BunUserAccountRepository {
	return &BunUserAccountRepository{db: db, now: time.Now}
}

// Create inserts a new account. A missing ID is filled with a UUIDv7 and a
// zero CreatedAt with the current time.
func (r *BunUserAccountRepository) Create(ctx context.Context, account *models.UserAccount) error {
	if account.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate account id: %w", err)
		}
		account.ID = id.String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = r.now().UTC()
	}

	_, err := r.db.NewInsert().
		Model(account).
		Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, account.Username)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByID retrieves a live account by its UUID. Ids that are not UUIDs never match.
func (r *BunUserAccountRepository) GetByID(ctx context.Context, id string) (*models.UserAccount, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrAccountNotFound, id)
	}

	account := new(models.UserAccount)
	err = r.db.NewSelect().
		Model(account).
		Where("id = ?", parsed.String()).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

// GetByUsername retrieves a live account by its username.
func (r *BunUserAccountRepository) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	account := new(models.UserAccount)
	err := r.db.NewSelect().
		Model(account).
		Where("username = ?", username).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
		}
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return account, nil
}

// Delete soft-deletes an account. Lookups stop returning it immediately.
func (r *BunUserAccountRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrAccountNotFound, id)
	}

	res, err := r.db.NewUpdate().
		Model((*models.UserAccount)(nil)).
		Set("deleted_at = ?", r.now().UTC()).
		Where("id = ?", parsed.String()).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "23505")
}
