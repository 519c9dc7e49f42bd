// Package auth resolves the caller of a request to an owner identity.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"expenses/internal/core"
)

var (
	ErrMissingCredentials = errors.New("missing bearer token")
	ErrInvalidCredentials = errors.New("invalid bearer token")
)

type Authenticator interface {
	Authenticate(r *http.Request) (core.OwnerID, error)
}

type tokenEntry struct {
	token []byte
	owner core.OwnerID
}

// TokenAuthenticator maps static bearer tokens to owners.
type TokenAuthenticator struct {
	entries []tokenEntry
}

var _ Authenticator = (*TokenAuthenticator)(nil)

// ParseTokens parses "token:owner,token:owner". Whitespace around items is ignored.
func ParseTokens(raw string) (map[string]core.OwnerID, error) {
	out := make(map[string]core.OwnerID)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		token, owner, ok := strings.Cut(item, ":")
		token, owner = strings.TrimSpace(token), strings.TrimSpace(owner)
		if !ok || token == "" || owner == "" {
			return nil, fmt.Errorf("malformed token entry %q (want token:owner)", item)
		}
		if _, dup := out[token]; dup {
			return nil, fmt.Errorf("duplicate token for owner %q", owner)
		}
		out[token] = core.OwnerID(owner)
	}
	return out, nil
}

func NewTokenAuthenticator(tokens map[string]core.OwnerID) *TokenAuthenticator {
	a := &TokenAuthenticator{}
	for token, owner := range tokens {
		a.entries = append(a.entries, tokenEntry{token: []byte(token), owner: owner})
	}
	return a
}

// Authenticate compares the presented token against every entry so the
// time taken does not depend on which entry matched.
func (a *TokenAuthenticator) Authenticate(r *http.Request) (core.OwnerID, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingCredentials
	}
	presented := []byte(strings.TrimSpace(token))

	var owner core.OwnerID
	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(presented, e.token) == 1 {
			owner = e.owner
		}
	}
	if owner == "" {
		return "", ErrInvalidCredentials
	}
	return owner, nil
}

type ctxKey struct{}

func WithOwner(ctx context.Context, owner core.OwnerID) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// OwnerFromContext returns the owner stored by Middleware.
func OwnerFromContext(ctx context.Context) (core.OwnerID, bool) {
	owner, ok := ctx.Value(ctxKey{}).(core.OwnerID)
	return owner, ok && owner != ""
}

// Middleware authenticates every request and calls onFailure instead of
// next when that fails.
func Middleware(a Authenticator, onFailure func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := a.Authenticate(r)
			if err != nil {
				onFailure(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
