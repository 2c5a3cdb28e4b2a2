package cmdutil

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/terraconstructs/geoform/internal/auth"
	"github.com/terraconstructs/geoform/internal/config"
	"github.com/terraconstructs/geoform/internal/db/bunx"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/services/account"
)

// AccountBundle bundles the account service with the collaborators it was
// built from so callers can reuse them. Tokens and Lookup back the authn
// middleware. Lookup always reads the database so a delete made by another
// process stops authenticating at once, even with the account cache on.
type AccountBundle struct {
	Service  *account.Service
	Accounts repository.UserAccountRepository
	Lookup   repository.AccountLookup
	Tokens   *auth.TokenCodec
	DB       *bun.DB
}

// Close releases the underlying database connection.
func (b *AccountBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	_ = bunx.Close(b.DB)
}

// NewAccountBundle centralizes account service construction for CLI commands.
func NewAccountBundle(cfg *config.Config, log logrus.FieldLogger) (*AccountBundle, error) {
	db, err := bunx.NewDB(cfg.Database.URL, bunx.Options{MaxOpenConns: cfg.Database.MaxConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.WithField("driver", string(bunx.DetectDatabaseType(cfg.Database.URL))).Debug("connected to database")

	store := repository.NewBunUserAccountRepository(db)
	var accounts repository.UserAccountRepository = store
	if cfg.Cache.Accounts.Size > 0 {
		accounts = repository.NewCachedUserAccountRepository(store, cfg.Cache.Accounts.Size, cfg.Cache.Accounts.TTL)
		log.WithFields(logrus.Fields{
			"size": cfg.Cache.Accounts.Size,
			"ttl":  cfg.Cache.Accounts.TTL,
		}).Info("account lookup cache enabled")
	}

	tokens, err := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), clockwork.NewRealClock())
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	var hasherOpts []auth.HasherOption
	if cfg.Auth.HashConcurrency > 0 {
		hasherOpts = append(hasherOpts, auth.WithConcurrency(cfg.Auth.HashConcurrency))
	}
	hasher := auth.NewPasswordHasher(hasherOpts...)

	return &AccountBundle{
		Service:  account.NewService(accounts, hasher, tokens, cfg.Auth.JWTExpire),
		Accounts: accounts,
		Lookup:   store,
		Tokens:   tokens,
		DB:       db,
	}, nil
}
