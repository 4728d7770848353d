package server

import (
	"fmt"
	"html"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistd/internal/session"
)

// IndexHandler serves a static page linking to the login route.
func IndexHandler(providerName string) http.Handler {
	page := fmt.Sprintf("<a href='%s'>Login to %s</a>", loginPath, html.EscapeString(providerName))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, page)
	})
}

// HealthHandler reports liveness and whether the caller's session holds an access token.
func HealthHandler(sessions *session.Manager, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, requestLogger(logger, r), http.StatusOK, map[string]any{
			"status":        "ok",
			"authenticated": sessions.Tokens(r.Context()).Authenticated(),
		})
	})
}
