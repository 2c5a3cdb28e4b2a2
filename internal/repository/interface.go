package repository

import (
	"context"
	"errors"

	"github.com/terraconstructs/geoform/internal/db/models"
)

var (
	// ErrAccountNotFound is returned when no live account matches the lookup key.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken is returned when Create collides with an existing username.
	ErrUsernameTaken = errors.New("username is already taken")
)

// AccountLookup resolves accounts by id or username. Implementations are
// read-only and return ErrAccountNotFound for unknown or deleted accounts.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.UserAccount, error)
	GetByUsername(ctx context.Context, username string) (*models.UserAccount, error)
}

// UserAccountRepository exposes persistence operations for user accounts.
type UserAccountRepository interface {
	AccountLookup
	Create(ctx context.Context, account *models.UserAccount) error
	Delete(ctx context.Context, id string) error
}
