package sdk

import "time"

// CredentialsInput is the body of sign-up and sign-in requests.
type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Account is the public view of an account.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t tokenResponse) credentials() *Credentials {
	return &Credentials{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresAt:   timeNow().Add(time.Duration(t.ExpiresIn) * time.Second),
	}
}
