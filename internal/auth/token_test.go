package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestCodec(t *testing.T) (*TokenCodec, fakeClock) {
	t.Helper()
	var clock fakeClock = clockwork.NewFakeClockAt(epoch)
	codec, err := NewTokenCodec([]byte("test-secret"), clock)
	require.NoError(t, err)
	return codec, clock
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)

	token, err := codec.Mint("0190b4b8-3a57-7c4e-9b1a-2f7c4d3e5a61", time.Hour)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "0190b4b8-3a57-7c4e-9b1a-2f7c4d3e5a61", claims.Subject)
	assert.True(t, claims.IssuedAt.Equal(epoch))
	assert.True(t, claims.ExpiresAt.Equal(epoch.Add(time.Hour)))
}

func TestTokenCodecPayloadIsIntegerSeconds(t *testing.T) {
	codec, _ := newTestCodec(t)
	token, err := codec.Mint("subject", time.Hour)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "subject", payload["sub"])
	assert.Equal(t, float64(epoch.Unix()), payload["iat"])
	assert.Equal(t, float64(epoch.Add(time.Hour).Unix()), payload["exp"])
}

func TestTokenCodecExpiry(t *testing.T) {
	codec, clock := newTestCodec(t)
	token, err := codec.Mint("subject", 30*time.Minute)
	require.NoError(t, err)

	clock.Advance(30*time.Minute - time.Second)
	_, err = codec.Verify(token)
	require.NoError(t, err, "valid until exp")

	// No leeway: exp == now is already expired.
	clock.Advance(time.Second)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodecTamperedPayloadIsBadSignature(t *testing.T) {
	codec, _ := newTestCodec(t)
	token, err := codec.Mint("subject", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := parts[1]
	replacements := []byte{'A', 'B', '_', '-', '!', '.'}

	for i := 0; i < len(payload); i++ {
		for _, c := range replacements {
			if payload[i] == c {
				continue
			}
			tampered := payload[:i] + string(c) + payload[i+1:]
			_, err := codec.Verify(parts[0] + "." + tampered + "." + parts[2])
			if c == '.' {
				// An extra separator breaks the three-segment structure.
				assert.ErrorIs(t, err, ErrTokenMalformed)
				continue
			}
			assert.ErrorIs(t, err, ErrTokenBadSignature, "byte %d -> %q", i, c)
		}
	}
}

func TestTokenCodecForeignSecret(t *testing.T) {
	codec, clock := newTestCodec(t)
	other, err := NewTokenCodec([]byte("other-secret"), clock)
	require.NoError(t, err)

	token, err := other.Mint("subject", time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenCodecMalformed(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "..", "a.b.!!!"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestTokenCodecRejectsOtherAlgorithms(t *testing.T) {
	codec, _ := newTestCodec(t)
	claims := jwt.RegisteredClaims{
		Subject:   "subject",
		IssuedAt:  jwt.NewNumericDate(epoch),
		ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}

	// HS384 with the same secret: the HS256 signature check fails first.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(unsigned)
	assert.Error(t, err)
}

func TestTokenCodecRequiresExpAndSub(t *testing.T) {
	codec, _ := newTestCodec(t)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "subject"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.Verify(noExp)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.Verify(noSub)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(nil, nil)
	assert.Error(t, err)
}
