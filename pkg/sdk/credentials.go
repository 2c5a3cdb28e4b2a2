package sdk

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

var timeNow = time.Now

// Credentials represents the bearer credentials issued at sign-in.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username,omitempty"`
}

func (c *Credentials) IsExpired() bool {
	return !timeNow().Before(c.ExpiresAt)
}

// CredentialStore persists credentials between CLI invocations.
type CredentialStore interface {
	SaveCredentials(credentials *Credentials) error
	LoadCredentials() (*Credentials, error)
	DeleteCredentials() error
}

// NewBearerClient returns an http.Client that sends creds as an
// "Authorization: Bearer" header on every request.
func NewBearerClient(ctx context.Context, creds *Credentials) *http.Client {
	token := &oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   creds.TokenType,
		Expiry:      creds.ExpiresAt,
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
}
