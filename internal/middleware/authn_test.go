package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/auth"
	"github.com/terraconstructs/geoform/internal/db/models"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

const accountID = "0190b4b8-3a57-7c4e-9b1a-2f7c4d3e5a61"

// mockAccountLookup is a minimal in-memory AccountLookup.
type mockAccountLookup struct {
	accounts map[string]*models.UserAccount
	err      error
	calls    int
}

func (m *mockAccountLookup) GetByID(_ context.Context, id string) (*models.UserAccount, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrAccountNotFound, id)
}

func (m *mockAccountLookup) GetByUsername(_ context.Context, username string) (*models.UserAccount, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type authnFixture struct {
	clock    fakeClock
	codec    *auth.TokenCodec
	accounts *mockAccountLookup
	handler  http.Handler
	reached  *bool
	seen     **models.UserAccount
}

func newAuthnFixture(t *testing.T) *authnFixture {
	t.Helper()

	var clock fakeClock = clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	codec, err := auth.NewTokenCodec([]byte("test-secret"), clock)
	require.NoError(t, err)

	accounts := &mockAccountLookup{accounts: map[string]*models.UserAccount{
		accountID: {ID: accountID, Username: "ada@example.com", CreatedAt: clock.Now()},
	}}

	metrics, err := telemetry.NewAuthMetrics()
	require.NoError(t, err)

	logger := logging.Discard()
	mw, err := NewAuthnMiddleware(AuthnDependencies{
		Tokens:    codec,
		Accounts:  accounts,
		Responder: apierror.NewResponder(logger),
		Logger:    logger,
		Metrics:   metrics,
	})
	require.NoError(t, err)

	reached := false
	var seen *models.UserAccount
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen, _ = auth.AccountFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	return &authnFixture{clock: clock, codec: codec, accounts: accounts, handler: handler, reached: &reached, seen: &seen}
}

func (f *authnFixture) do(header string, set bool) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if set {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func TestAuthnMiddlewareAttachesAccount(t *testing.T) {
	f := newAuthnFixture(t)
	token, err := f.codec.Mint(accountID, time.Hour)
	require.NoError(t, err)

	w := f.do("Bearer "+token, true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, *f.reached)
	require.NotNil(t, *f.seen)
	assert.Equal(t, "ada@example.com", (*f.seen).Username)
}

func TestAuthnMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name   string
		header func(f *authnFixture) (string, bool)
		status int
		body   string
	}{
		{
			name:   "missing header",
			header: func(*authnFixture) (string, bool) { return "", false },
			status: http.StatusForbidden,
			body:   `{"error":"Please add the JWT token to the header"}`,
		},
		{
			name:   "empty header",
			header: func(*authnFixture) (string, bool) { return "", true },
			status: http.StatusForbidden,
			body:   `{"error":"Missing token"}`,
		},
		{
			name:   "blank header",
			header: func(*authnFixture) (string, bool) { return "   ", true },
			status: http.StatusForbidden,
			body:   `{"error":"Missing token"}`,
		},
		{
			name:   "non visible characters",
			header: func(*authnFixture) (string, bool) { return "Bearer \x01abc", true },
			status: http.StatusForbidden,
			body:   `{"error":"Empty header is not allowed"}`,
		},
		{
			name:   "scheme only",
			header: func(*authnFixture) (string, bool) { return "Bearer", true },
			status: http.StatusForbidden,
			body:   `{"error":"Missing token"}`,
		},
		{
			name:   "wrong scheme",
			header: func(*authnFixture) (string, bool) { return "Basic YWRhOnB3", true },
			status: http.StatusForbidden,
			body:   `{"error":"Missing token"}`,
		},
		{
			name:   "garbage token",
			header: func(*authnFixture) (string, bool) { return "Bearer not.a.jwt", true },
			status: http.StatusUnauthorized,
			body:   `{"error":"authentication is required to access this resource"}`,
		},
		{
			name: "foreign signature",
			header: func(f *authnFixture) (string, bool) {
				other, _ := auth.NewTokenCodec([]byte("other-secret"), f.clock)
				token, _ := other.Mint(accountID, time.Hour)
				return "Bearer " + token, true
			},
			status: http.StatusUnauthorized,
			body:   `{"error":"authentication is required to access this resource"}`,
		},
		{
			name: "unknown account",
			header: func(f *authnFixture) (string, bool) {
				token, _ := f.codec.Mint("0190b4b8-0000-7000-8000-000000000000", time.Hour)
				return "Bearer " + token, true
			},
			status: http.StatusForbidden,
			body:   `{"error":"User not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthnFixture(t)
			header, set := tt.header(f)

			w := f.do(header, set)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
			assert.False(t, *f.reached, "handler must not run")
		})
	}
}

func TestAuthnMiddlewareExpiredTokenDoesNotLeakReason(t *testing.T) {
	f := newAuthnFixture(t)
	token, err := f.codec.Mint(accountID, time.Minute)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	w := f.do("Bearer "+token, true)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication is required to access this resource"}`, w.Body.String())
	assert.NotContains(t, strings.ToLower(w.Body.String()), "expire")
	assert.False(t, *f.reached)
	assert.Zero(t, f.accounts.calls, "account lookup must not run for rejected tokens")
}

func TestAuthnMiddlewareDeletedAccount(t *testing.T) {
	f := newAuthnFixture(t)
	deletedAt := f.clock.Now()
	f.accounts.accounts[accountID].DeletedAt = &deletedAt
	token, err := f.codec.Mint(accountID, time.Hour)
	require.NoError(t, err)

	w := f.do("Bearer "+token, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestAuthnMiddlewareLookupFailure(t *testing.T) {
	f := newAuthnFixture(t)
	f.accounts.err = errors.New("connection reset by peer")
	token, err := f.codec.Mint(accountID, time.Hour)
	require.NoError(t, err)

	w := f.do("Bearer "+token, true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, *f.reached)
}

func TestNewAuthnMiddlewareRequiresDependencies(t *testing.T) {
	_, err := NewAuthnMiddleware(AuthnDependencies{})
	assert.Error(t, err)
}
