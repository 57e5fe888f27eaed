package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"vaad/internal/session"
)

// Auth wraps the authentication endpoints. Every successful call stores the
// returned credential in the session store as a side effect.
type Auth struct {
	t    *Transport
	sess *session.Store
}

// NewAuth creates an auth client bound to the given session store.
func NewAuth(t *Transport, sess *session.Store) *Auth {
	return &Auth{t: t, sess: sess}
}

// Login exchanges email and password for a credential.
func (a *Auth) Login(ctx context.Context, email, password string) (session.Profile, error) {
	return a.exchange(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Signup registers a new account and logs it in.
func (a *Auth) Signup(ctx context.Context, email, password, name string) (session.Profile, error) {
	return a.exchange(ctx, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

// ExchangeOAuthCode trades an OAuth authorization code for a credential.
func (a *Auth) ExchangeOAuthCode(ctx context.Context, provider, code string) (session.Profile, error) {
	return a.exchange(ctx, "/auth/oauth/"+provider, map[string]string{
		"code": code,
	})
}

// Logout clears the local session and notifies the server on a best-effort
// basis. The local credential is gone even if the server call fails.
func (a *Auth) Logout(ctx context.Context) {
	_, err := a.t.Request(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil && !IsAuthExpired(err) {
		a.t.logger.Warn("Server-side logout failed, clearing local session anyway", "error", err)
	}
	a.sess.Clear()
}

func (a *Auth) exchange(ctx context.Context, path string, body map[string]string) (session.Profile, error) {
	raw, err := a.t.Request(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Token string          `json:"token"`
		User  session.Profile `json:"user"`
	}
	if raw == nil {
		return nil, errors.New("auth response had no body")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if out.Token == "" {
		return nil, errors.New("auth response missing token")
	}
	a.sess.SetCredentials(out.Token, out.User)
	return out.User, nil
}
