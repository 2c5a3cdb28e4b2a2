package auth

import (
	"context"

	"github.com/terraconstructs/geoform/internal/db/models"
)

type accountContextKey struct{}

// SetAccountContext stores the authenticated account on the context for downstream handlers.
func SetAccountContext(ctx context.Context, account *models.UserAccount) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext retrieves the authenticated account from the context.
func AccountFromContext(ctx context.Context) (*models.UserAccount, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*models.UserAccount)
	return account, ok && account != nil
}
