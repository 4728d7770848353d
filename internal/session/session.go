// Package session keeps per-browser OAuth state server-side, keyed by an opaque cookie.
//
// It is a thin layer over [scs.SessionManager]: the cookie only carries a random session token and the
// [Tokens] live in the configured [scs.Store] (memory, SQLite or Redis, see [NewStore]).
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/desertthunder/playlistd/internal/shared"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at" // epoch seconds
	keyState        = "oauth_state"
)

// Tokens is the OAuth state stored for one browser session.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticated reports whether an access token has been stored.
func (t Tokens) Authenticated() bool {
	return t.AccessToken != ""
}

// Expired reports whether the access token must no longer be sent at now.
func (t Tokens) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Manager reads and writes [Tokens] for the session attached to a request context.
type Manager struct {
	sm    *scs.SessionManager
	close func() error
}

// NewManager creates a Manager backed by store. closeFn, when non-nil, releases the store on [Manager.Close].
func NewManager(store scs.Store, closeFn func() error, c shared.SessionConfig) *Manager {
	sm := scs.New()
	sm.Store = store
	if c.Lifetime > 0 {
		sm.Lifetime = c.Lifetime
	}
	if c.CookieName != "" {
		sm.Cookie.Name = c.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = c.CookieSecure
	// Lax so the cookie is sent on the provider's top-level redirect back to /callback.
	sm.Cookie.SameSite = http.SameSiteLaxMode

	return &Manager{sm: sm, close: closeFn}
}

// Middleware loads the session before next runs and saves it once next returns.
//
// The response is held back until the session is committed, so a store failure replaces it with the error
// func's reply instead of following it.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Cookie")

		var token string
		if cookie, err := r.Cookie(m.sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := m.sm.Load(r.Context(), token)
		if err != nil {
			m.sm.ErrorFunc(w, r, err)
			return
		}
		r = r.WithContext(ctx)

		bw := newBufferedWriter()
		next.ServeHTTP(bw, r)

		switch m.sm.Status(ctx) {
		case scs.Modified:
			token, expiry, err := m.sm.Commit(ctx)
			if err != nil {
				m.sm.ErrorFunc(w, r, err)
				return
			}
			m.sm.WriteSessionCookie(ctx, w, token, expiry)
		case scs.Destroyed:
			m.sm.WriteSessionCookie(ctx, w, "", time.Time{})
		}

		bw.flush(w)
	})
}

// SetErrorFunc sets the handler used when the store fails to load or save a session.
func (m *Manager) SetErrorFunc(fn func(http.ResponseWriter, *http.Request, error)) {
	m.sm.ErrorFunc = fn
}

// Tokens returns the tokens stored in the request's session. Missing values are zero.
func (m *Manager) Tokens(ctx context.Context) Tokens {
	return Tokens{
		AccessToken:  m.sm.GetString(ctx, keyAccessToken),
		RefreshToken: m.sm.GetString(ctx, keyRefreshToken),
		ExpiresAt:    fromUnix(m.sm.GetInt64(ctx, keyExpiresAt)),
	}
}

// SetTokens stores a freshly issued token set. The session token is renewed first since the session now carries
// credentials.
func (m *Manager) SetTokens(ctx context.Context, t Tokens) error {
	if err := m.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	m.sm.Put(ctx, keyAccessToken, t.AccessToken)
	m.sm.Put(ctx, keyRefreshToken, t.RefreshToken)
	m.sm.Put(ctx, keyExpiresAt, t.ExpiresAt.Unix())
	return nil
}

// UpdateAccessToken overwrites the access token and its expiry. The refresh token is left as is.
func (m *Manager) UpdateAccessToken(ctx context.Context, accessToken string, expiresAt time.Time) {
	m.sm.Put(ctx, keyAccessToken, accessToken)
	m.sm.Put(ctx, keyExpiresAt, expiresAt.Unix())
}

// SetState records the nonce of the login redirect in flight.
func (m *Manager) SetState(ctx context.Context, nonce string) {
	m.sm.Put(ctx, keyState, nonce)
}

// PopState returns and removes the pending login nonce, or "" when there is none.
func (m *Manager) PopState(ctx context.Context) string {
	return m.sm.PopString(ctx, keyState)
}

// fromUnix converts a stored expires_at (epoch seconds) back to a time. 0 means unset.
func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}
