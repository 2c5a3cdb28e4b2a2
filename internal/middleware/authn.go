package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/auth"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

// Rejection messages returned by the authentication middleware.
const (
	MsgMissingHeader   = "Please add the JWT token to the header"
	MsgEmptyHeader     = "Empty header is not allowed"
	MsgMissingToken    = "Missing token"
	MsgAccountNotFound = "User not found"
)

// TokenVerifier decodes and verifies a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.IdentityClaims, error)
}

// AuthnDependencies bundles collaborators required by the authentication middleware.
type AuthnDependencies struct {
	Tokens    TokenVerifier
	Accounts  repository.AccountLookup
	Responder *apierror.Responder
	Logger    logrus.FieldLogger
	Metrics   *telemetry.AuthMetrics // optional
}

// NewAuthnMiddleware authenticates requests carrying "Authorization: Bearer <token>".
//
// A missing or unusable header and an unknown account are answered with 403.
// Any token failure (malformed, bad signature, expired) is answered with a
// generic 401 that does not reveal which check failed. On success the account
// is stored on the request context (see auth.AccountFromContext).
func NewAuthnMiddleware(deps AuthnDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errors.New("authn middleware requires a token verifier")
	}
	if deps.Accounts == nil {
		return nil, errors.New("authn middleware requires an account lookup")
	}
	if deps.Responder == nil {
		return nil, errors.New("authn middleware requires a responder")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			reject := func(reason string, err error) {
				if deps.Metrics != nil {
					deps.Metrics.RecordAuth(ctx, "bearer", reason, msSince(start))
				}
				deps.Responder.Write(w, r, err)
			}

			// STEP 1: Extract the bearer token
			token, rejection := bearerToken(r.Header)
			if rejection != "" {
				reject("bad_header", apierror.Forbidden(rejection))
				return
			}

			// STEP 2: Verify signature and expiry
			claims, err := deps.Tokens.Verify(token)
			if err != nil {
				deps.Logger.WithError(err).WithField("path", r.URL.Path).Debug("bearer token rejected")
				reject("invalid_token", apierror.Unauthorized().WithCause(err))
				return
			}

			// STEP 3: Resolve the subject to a live account
			account, err := deps.Accounts.GetByID(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrAccountNotFound) {
					reject("account_not_found", apierror.Forbidden(MsgAccountNotFound).WithCause(err))
					return
				}
				reject("lookup_failed", apierror.InternalServerError(err))
				return
			}
			if account.IsDeleted() {
				reject("account_not_found", apierror.Forbidden(MsgAccountNotFound))
				return
			}

			// STEP 4: Attach the account for downstream handlers
			if deps.Metrics != nil {
				deps.Metrics.RecordAuth(ctx, "bearer", "", msSince(start))
			}
			next.ServeHTTP(w, r.WithContext(auth.SetAccountContext(ctx, account)))
		})
	}, nil
}

// bearerToken returns the token or the rejection message for the header.
func bearerToken(h http.Header) (string, string) {
	values := h.Values("Authorization")
	if len(values) == 0 {
		return "", MsgMissingHeader
	}

	raw := values[0]
	if !isVisibleASCII(raw) {
		return "", MsgEmptyHeader
	}

	fields := strings.Fields(raw)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", MsgMissingToken
	}
	return fields[1], ""
}

func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\t' || (c >= 0x20 && c < 0x7f) {
			continue
		}
		return false
	}
	return true
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
