package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/terraconstructs/geoform/internal/db/models"
)

// CachedUserAccountRepository keeps recently resolved accounts in an
// expiring LRU keyed by id. Username lookups go to the backing store and
// prime the cache on the way out.
//
// Deletes made through another process (geoformapi users delete) are only
// observed once the entry expires, so authentication must not read through
// this cache.
type CachedUserAccountRepository struct {
	inner UserAccountRepository
	byID  *expirable.LRU[string, models.UserAccount]
}

// NewCachedUserAccountRepository wraps inner with a cache of at most size entries living for ttl.
func NewCachedUserAccountRepository(inner UserAccountRepository, size int, ttl time.Duration) *CachedUserAccountRepository {
	return &CachedUserAccountRepository{
		inner: inner,
		byID:  expirable.NewLRU[string, models.UserAccount](size, nil, ttl),
	}
}

// GetByID returns a copy of the cached account or loads it from the backing store.
func (c *CachedUserAccountRepository) GetByID(ctx context.Context, id string) (*models.UserAccount, error) {
	if account, ok := c.byID.Get(cacheKey(id)); ok {
		return &account, nil
	}
	account, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.byID.Add(account.ID, *account)
	return account, nil
}

// GetByUsername always consults the backing store.
func (c *CachedUserAccountRepository) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	account, err := c.inner.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	c.byID.Add(account.ID, *account)
	return account, nil
}

// Create stores the account and caches it.
func (c *CachedUserAccountRepository) Create(ctx context.Context, account *models.UserAccount) error {
	if err := c.inner.Create(ctx, account); err != nil {
		return err
	}
	c.byID.Add(account.ID, *account)
	return nil
}

// Delete soft-deletes the account and evicts it once the backing store agrees.
func (c *CachedUserAccountRepository) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.byID.Remove(cacheKey(id))
	return nil
}

// cacheKey matches the canonical id form stored on accounts.
func cacheKey(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}
