package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistd/internal/services"
	"github.com/desertthunder/playlistd/internal/session"
	"github.com/desertthunder/playlistd/internal/shared"
	"golang.org/x/oauth2"
)

const (
	loginPath     = "/login"
	callbackPath  = "/callback"
	refreshPath   = "/refresh-token"
	playlistsPath = "/playlists"

	// fallbackTokenLifetime applies when the token response carries no expires_in.
	fallbackTokenLifetime = time.Hour
)

// OAuthHandler serves the authorization code flow: the login redirect, the provider callback and the refresh
// token exchange. Tokens are kept in the caller's session.
type OAuthHandler struct {
	provider services.Provider
	sessions *session.Manager
	state    *StateSigner
	// tokenLifetime, when positive, replaces the provider's expires_in.
	tokenLifetime time.Duration
	now           func() time.Time
	logger        *log.Logger
	metrics       *Metrics
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + loginPath, "GET " + callbackPath, "GET " + refreshPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case loginPath:
		h.Login(w, r)
	case callbackPath:
		h.Callback(w, r)
	case refreshPath:
		h.Refresh(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Login redirects to the provider's authorization page with a signed state bound to the session.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)
	nonce := shared.GenerateID()
	state, err := h.state.Sign(nonce, h.now())
	if err != nil {
		logger.Error("failed to sign state", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "internal_error", "could not start login")
		return
	}

	h.sessions.SetState(r.Context(), nonce)
	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// Callback completes the login. The provider redirects here with either error or code (plus state).
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)
	query := r.URL.Query()

	if query.Has("error") {
		logger.Warn("authorization denied", "error", query.Get("error"))
		writeJSON(w, logger, http.StatusBadRequest, map[string]string{"error": query.Get("error")})
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, logger, http.StatusBadRequest, "missing_code", "callback requires a code or error parameter")
		return
	}

	nonce := h.sessions.PopState(r.Context())
	if err := h.state.Verify(query.Get("state"), nonce, h.now()); err != nil {
		logger.Warn("rejected callback", "error", err)
		writeError(w, logger, http.StatusBadRequest, "invalid_state", "state parameter is missing, expired or does not match this session")
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	h.metrics.ObserveUpstream(services.OpExchange, err)
	if err != nil {
		upstreamFailure(w, logger, err)
		return
	}

	tokens := session.Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    h.expiresAt(token),
	}
	if err := h.sessions.SetTokens(r.Context(), tokens); err != nil {
		logger.Error("failed to store tokens", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "session_error", "could not store tokens")
		return
	}

	logger.Info("login complete", "expires_at", tokens.ExpiresAt)
	http.Redirect(w, r, playlistsPath, http.StatusFound)
}

// Refresh exchanges the session's refresh token for a new access token once the current one has expired.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)
	tokens := h.sessions.Tokens(r.Context())

	if tokens.RefreshToken == "" {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	if !tokens.Expired(h.now()) {
		writeJSON(w, logger, http.StatusOK, map[string]string{
			"status":     "nothing_to_refresh",
			"expires_at": tokens.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}

	token, err := h.provider.Refresh(r.Context(), tokens.RefreshToken)
	h.metrics.ObserveUpstream(services.OpRefresh, err)
	if err != nil {
		upstreamFailure(w, logger, err)
		return
	}

	// The refresh token is not always reissued, so the stored one is kept.
	expiresAt := h.expiresAt(token)
	h.sessions.UpdateAccessToken(r.Context(), token.AccessToken, expiresAt)

	logger.Info("access token refreshed", "expires_at", expiresAt)
	http.Redirect(w, r, playlistsPath, http.StatusFound)
}

// expiresAt applies the configured lifetime policy to a token response.
func (h *OAuthHandler) expiresAt(token *oauth2.Token) time.Time {
	now := h.now()
	if h.tokenLifetime > 0 {
		return now.Add(h.tokenLifetime)
	}
	if d, ok := services.ExpiresIn(token, now); ok {
		return now.Add(d)
	}
	h.logger.Debug("token response has no expires_in", "fallback", fallbackTokenLifetime)
	return now.Add(fallbackTokenLifetime)
}
