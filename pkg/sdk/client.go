package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client provides a high-level interface to the geoform REST API.
type Client struct {
	http    *http.Client
	baseURL string
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls. Pass the
// result of NewBearerClient to call protected endpoints.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// NewClient creates a client that communicates with the API server at baseURL.
// An http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		http:    opts.HTTPClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health reports whether the server answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/health", nil, nil, &out)
}

// SignUp registers a new account and returns its id.
func (c *Client) SignUp(ctx context.Context, input CredentialsInput) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, input, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// SignIn exchanges a username and password for bearer credentials.
func (c *Client) SignIn(ctx context.Context, input CredentialsInput) (*Credentials, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", nil, input, &out); err != nil {
		return nil, err
	}
	creds := out.credentials()
	creds.Username = input.Username
	return creds, nil
}

// Me returns the account the client is authenticated as.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccount returns the account with the given id.
func (c *Client) GetAccount(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("account id is required")
	}
	var out Account
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAccount returns the account with the given username.
func (c *Client) FindAccount(ctx context.Context, username string) (*Account, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	var out Account
	if err := c.do(ctx, http.MethodGet, "/api/users", url.Values{"username": {username}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes the "data" member of a success body
// into out. Error bodies are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
