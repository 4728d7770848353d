package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistd/internal/services"
	"github.com/desertthunder/playlistd/internal/session"
)

// PlaylistHandler proxies the current user's playlists using the access token in the session.
type PlaylistHandler struct {
	provider services.Provider
	sessions *session.Manager
	now      func() time.Time
	logger   *log.Logger
	metrics  *Metrics
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{"GET " + playlistsPath}
}

// ServeHTTP sends unauthenticated sessions to login and expired ones to the refresh handler; otherwise it makes
// one upstream call and writes its JSON body unchanged.
func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)
	tokens := h.sessions.Tokens(r.Context())

	if !tokens.Authenticated() {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	if tokens.Expired(h.now()) {
		logger.Info("token expired, refreshing", "expired_at", tokens.ExpiresAt)
		http.Redirect(w, r, refreshPath, http.StatusFound)
		return
	}

	body, err := h.provider.Playlists(r.Context(), tokens.AccessToken)
	h.metrics.ObserveUpstream(services.OpPlaylists, err)
	if err != nil {
		upstreamFailure(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Warn("failed to write playlists response", "error", err)
	}
}
