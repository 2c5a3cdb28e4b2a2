package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserAccount is a registered account. Username holds the login email and is
// unique among live accounts (see the idx_user_account_username_live index).
// PasswordHash stores a self-describing argon2id (or legacy bcrypt) hash.
type UserAccount struct {
	bun.BaseModel `bun:"table:user_account,alias:ua"`

	ID           string     `bun:"id,pk,type:uuid"`
	Username     string     `bun:"username,notnull"`
	PasswordHash string     `bun:"password_hash,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	DeletedAt    *time.Time `bun:"deleted_at"`
}

// IsDeleted reports whether the account has been soft-deleted.
func (a *UserAccount) IsDeleted() bool {
	return a != nil && a.DeletedAt != nil
}
