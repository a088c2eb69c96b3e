package web

import (
	"net/http"
	"strings"

	"github.com/hpungsan/satchel/internal/errors"
)

// Authenticator resolves a request to a verified user identity. The core
// trusts the returned user id without re-verifying credentials.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// StaticTokenAuthenticator maps bearer tokens to user ids from config.
// Production deployments plug in their own Authenticator at the same seam.
type StaticTokenAuthenticator struct {
	tokens map[string]string
}

// NewStaticTokenAuthenticator builds an authenticator over a token→user map.
func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	return &StaticTokenAuthenticator{tokens: tokens}
}

func (a *StaticTokenAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errors.NewUnauthorized()
	}

	userID, ok := a.tokens[token]
	if !ok {
		return "", errors.NewUnauthorized()
	}
	return userID, nil
}
