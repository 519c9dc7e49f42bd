package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"expenses/internal/core"
)

func TestParseTokens(t *testing.T) {
	got, err := ParseTokens(" t1:alice , t2:bob,")
	if err != nil {
		t.Fatalf("ParseTokens() error = %v", err)
	}
	if len(got) != 2 || got["t1"] != "alice" || got["t2"] != "bob" {
		t.Errorf("ParseTokens() = %v", got)
	}

	for _, bad := range []string{"t1", "t1:", ":alice", "t1:a,t1:b"} {
		if _, err := ParseTokens(bad); err == nil {
			t.Errorf("ParseTokens(%q) should fail", bad)
		}
	}
}

func TestTokenAuthenticator(t *testing.T) {
	a := NewTokenAuthenticator(map[string]core.OwnerID{"secret-a": "alice", "secret-b": "bob"})

	tests := []struct {
		name    string
		header  string
		want    core.OwnerID
		wantErr error
	}{
		{"valid token", "Bearer secret-a", "alice", nil},
		{"scheme is case insensitive", "bearer secret-b", "bob", nil},
		{"missing header", "", "", ErrMissingCredentials},
		{"wrong scheme", "Basic secret-a", "", ErrMissingCredentials},
		{"unknown token", "Bearer secret-c", "", ErrInvalidCredentials},
		{"prefix of a token", "Bearer secret", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := a.Authenticate(r)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Errorf("Authenticate() = %q, %v; want %q, %v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	a := NewTokenAuthenticator(map[string]core.OwnerID{"tok": "alice"})
	var seen core.OwnerID
	h := Middleware(a, func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || seen != "" {
		t.Errorf("unauthenticated request: code %d, owner %q", rec.Code, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "alice" {
		t.Errorf("owner in context = %q, want alice", seen)
	}
}
