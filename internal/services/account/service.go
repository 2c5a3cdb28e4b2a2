// Package account implements sign-up, sign-in and account lookups.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/terraconstructs/geoform/internal/db/models"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

const tracerName = "geoform/services/account"

// ErrInvalidCredentials is returned by SignIn for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, encoded string) bool
}

// TokenMinter issues access tokens for an account id.
type TokenMinter interface {
	Mint(subject string, ttl time.Duration) (string, error)
}

// TokenResponse is the OAuth2-style bearer token issued on sign-in.
type TokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service coordinates the account repository, password hasher and token minter.
type Service struct {
	accounts repository.UserAccountRepository
	hasher   PasswordHasher
	tokens   TokenMinter
	tokenTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates an account service issuing tokens valid for tokenTTL.
func NewService(accounts repository.UserAccountRepository, hasher PasswordHasher, tokens TokenMinter, tokenTTL time.Duration) *Service {
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// SignUp registers a new account. It returns repository.ErrUsernameTaken when
// the username already belongs to a live account.
func (s *Service) SignUp(ctx context.Context, username, password string) (*models.UserAccount, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "account.SignUp",
		attribute.String(telemetry.AttrAccountUsername, username),
	)
	defer span.End()

	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		telemetry.RecordError(span, repository.ErrUsernameTaken)
		return nil, repository.ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.UserAccount{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String(telemetry.AttrAccountID, account.ID))
	return account, nil
}

// SignIn checks the credentials and issues a bearer token.
func (s *Service) SignIn(ctx context.Context, username, password string) (*TokenResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "account.SignIn",
		attribute.String(telemetry.AttrAccountUsername, username),
	)
	defer span.End()

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		// Spend the same hashing work as a real check.
		s.hasher.Verify(ctx, password, s.dummy(ctx))
		telemetry.RecordError(span, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, password, account.PasswordHash) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		telemetry.RecordError(span, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(account.ID, s.tokenTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("mint token: %w", err)
	}

	span.SetAttributes(attribute.String(telemetry.AttrAccountID, account.ID))
	return &TokenResponse{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// Get returns the live account with the given id.
func (s *Service) Get(ctx context.Context, id string) (*models.UserAccount, error) {
	return s.accounts.GetByID(ctx, id)
}

// GetByUsername returns the live account with the given username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	return s.accounts.GetByUsername(ctx, username)
}

// Delete soft-deletes an account; its tokens stop working immediately.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "account.Delete",
		attribute.String(telemetry.AttrAccountID, id),
	)
	defer span.End()

	if err := s.accounts.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

func (s *Service) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.WithoutCancel(ctx), "geoform-dummy-password")
	})
	return s.dummyHash
}
