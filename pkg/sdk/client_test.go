package sdk_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/geoform/internal/server/servertest"
	"github.com/terraconstructs/geoform/pkg/sdk"
)

var ada = sdk.CredentialsInput{Username: "ada@example.com", Password: "hunter22"}

func TestClientRoundTrip(t *testing.T) {
	srv := servertest.NewServer(t)
	ctx := context.Background()
	client := sdk.NewClient(srv.URL)

	require.NoError(t, client.Health(ctx))

	id, err := client.SignUp(ctx, ada)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	creds, err := client.SignIn(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", creds.TokenType)
	assert.Equal(t, "ada@example.com", creds.Username)
	assert.False(t, creds.IsExpired())
	assert.WithinDuration(t, time.Now().Add(servertest.TokenTTL), creds.ExpiresAt, time.Minute)

	authed := sdk.NewClient(srv.URL, sdk.WithHTTPClient(sdk.NewBearerClient(ctx, creds)))

	me, err := authed.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "ada@example.com", me.Username)

	byID, err := authed.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, me.Username, byID.Username)

	byName, err := authed.FindAccount(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestClientErrors(t *testing.T) {
	srv := servertest.NewServer(t)
	ctx := context.Background()
	client := sdk.NewClient(srv.URL)

	t.Run("validation errors carry every field", func(t *testing.T) {
		_, err := client.SignUp(ctx, sdk.CredentialsInput{Username: "nope", Password: "ab"})
		var apiErr *sdk.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, []string{"email is invalid"}, apiErr.Fields["username"])
		assert.Equal(t, []string{"password must be at least 6 characters"}, apiErr.Fields["password"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := client.SignIn(ctx, ada)
		assert.True(t, sdk.IsStatus(err, http.StatusUnauthorized))
	})

	t.Run("protected route without token", func(t *testing.T) {
		_, err := client.Me(ctx)
		var apiErr *sdk.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "Please add the JWT token to the header", apiErr.Message)
	})

	t.Run("conflict", func(t *testing.T) {
		_, err := client.SignUp(ctx, ada)
		require.NoError(t, err)
		_, err = client.SignUp(ctx, ada)
		assert.True(t, sdk.IsStatus(err, http.StatusConflict))
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, err := client.GetAccount(ctx, "")
		assert.Error(t, err)
		_, err = client.FindAccount(ctx, "")
		assert.Error(t, err)
	})
}

func TestCredentialsIsExpired(t *testing.T) {
	assert.True(t, (&sdk.Credentials{ExpiresAt: time.Now().Add(-time.Second)}).IsExpired())
	assert.False(t, (&sdk.Credentials{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}
