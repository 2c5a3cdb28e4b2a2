package client

import (
	"context"
	"errors"
	"sync"

	"github.com/terraconstructs/geoform/pkg/sdk"
)

// Provider yields public and authenticated SDK clients backed by the credential store.
type Provider struct {
	serverURL   string
	store       sdk.CredentialStore
	bearerToken string // ephemeral token that bypasses credential store (for testing)

	credentialsOnce sync.Once
	credentials     *sdk.Credentials
	credentialsErr  error
}

// NewProvider constructs a new Provider bound to the given server URL.
func NewProvider(serverURL string, store sdk.CredentialStore) *Provider {
	return &Provider{serverURL: serverURL, store: store}
}

// SetBearerToken injects an ephemeral bearer token (bypasses credential store).
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// Store returns the credential store.
func (p *Provider) Store() sdk.CredentialStore {
	return p.store
}

// Credentials loads the stored credentials once.
func (p *Provider) Credentials() (*sdk.Credentials, error) {
	p.credentialsOnce.Do(func() {
		p.credentials, p.credentialsErr = p.store.LoadCredentials()
	})
	return p.credentials, p.credentialsErr
}

// PublicClient returns an SDK client that sends no credentials.
func (p *Provider) PublicClient() *sdk.Client {
	return sdk.NewClient(p.serverURL)
}

// SDKClient returns an SDK client that authenticates every request.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	// Priority 1: Ephemeral bearer token (for testing/CI)
	if p.bearerToken != "" {
		creds := &sdk.Credentials{AccessToken: p.bearerToken, TokenType: "Bearer"}
		return sdk.NewClient(p.serverURL, sdk.WithHTTPClient(sdk.NewBearerClient(ctx, creds))), nil
	}

	// Priority 2: Credential store
	creds, err := p.Credentials()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, errors.New("no credentials found; please run `geoformctl auth login`")
	}
	if creds.IsExpired() {
		return nil, errors.New("access token expired; please run `geoformctl auth login`")
	}
	return sdk.NewClient(p.serverURL, sdk.WithHTTPClient(sdk.NewBearerClient(ctx, creds))), nil
}
