// Package servertest runs the full geoform HTTP stack over an in-memory
// SQLite database for tests of API clients.
package servertest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/auth"
	"github.com/terraconstructs/geoform/internal/config"
	"github.com/terraconstructs/geoform/internal/db/bunx"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/middleware"
	"github.com/terraconstructs/geoform/internal/migrations"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/server"
	"github.com/terraconstructs/geoform/internal/services/account"
)

// TokenTTL is the lifetime of tokens issued by a test server.
const TokenTTL = time.Hour

// NewServer starts an httptest.Server serving the full router. It is closed
// when the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	logger := logging.Discard()
	responder := apierror.NewResponder(logger)
	repo := repository.NewBunUserAccountRepository(db)
	codec, err := auth.NewTokenCodec([]byte("servertest-secret"), clockwork.NewRealClock())
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(auth.WithArgon2Params(auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	}))

	authn, err := middleware.NewAuthnMiddleware(middleware.AuthnDependencies{
		Tokens:    codec,
		Accounts:  repo,
		Responder: responder,
		Logger:    logger,
	})
	require.NoError(t, err)

	handler, err := server.NewH2CHandler(server.RouterOptions{
		Accounts:  account.NewService(repo, hasher, codec, TokenTTL),
		Authn:     authn,
		Responder: responder,
		Logger:    logger,
		Server:    config.ServerConfig{Timeout: 5 * time.Second, BodyLimit: 1 << 20},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		_ = bunx.Close(db)
	})
	return srv
}
