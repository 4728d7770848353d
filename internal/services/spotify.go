// Spotify Web API implementation of [Provider]
//
// Endpoints documented at https://developer.spotify.com/documentation/web-api/tutorials/code-flow
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playlistd/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of an upstream response is read.
	maxBodyBytes = 8 << 20
)

// DefaultScopes are requested when the configuration lists none.
var DefaultScopes = []string{"user-read-private", "user-read-email"}

// SpotifyService implements the [Provider] interface for the Spotify accounts service and Web API.
// Uses [oauth2] for the authorization code and refresh token grants.
type SpotifyService struct {
	config     *oauth2.Config
	api        *APIService
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service from the application credentials in c.
//
// client is used for every outbound call; when nil a client with c.Timeout (10s by default) is created.
func NewSpotifyService(c shared.SpotifyConfig, client *http.Client) (*SpotifyService, error) {
	if c.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if c.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := c.RedirectURI
	if redirectURI == "" {
		redirectURI = shared.DefaultConfig().Spotify.RedirectURI
	}

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	if client == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	config := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   valueOr(c.AuthURL, spotifyAuthURL),
			TokenURL:  valueOr(c.TokenURL, spotifyTokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &SpotifyService{
		config:     config,
		api:        NewAPIService(valueOr(c.APIBaseURL, spotifyBaseURL), client),
		httpClient: client,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL for user login.
//
// show_dialog forces the consent screen even when the user already approved the application.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange performs the authorization_code grant.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, upstreamError(OpExchange, err)
	}
	if token.RefreshToken == "" {
		return nil, &UpstreamError{Op: OpExchange, Err: fmt.Errorf("server response missing refresh_token")}
	}
	return token, nil
}

// Refresh performs the refresh_token grant. The returned token's RefreshToken is the one the server sent back, or
// refreshToken when it did not rotate it.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	src := s.config.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, upstreamError(OpRefresh, err)
	}
	return token, nil
}

// Playlists calls GET /me/playlists with the bearer token and returns the body as received.
//
// Pagination fields (next, offset, total) are part of the body; no further pages are fetched.
func (s *SpotifyService) Playlists(ctx context.Context, accessToken string) (json.RawMessage, error) {
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := s.api.Get(ctx, "/me/playlists", http.Header{
		"Authorization": {"Bearer " + accessToken},
		"Accept":        {"application/json"},
	})
	if err != nil {
		return nil, &UpstreamError{Op: OpPlaylists, Err: err}
	}

	if !resp.OK() {
		return nil, &UpstreamError{Op: OpPlaylists, StatusCode: resp.StatusCode, Err: fmt.Errorf("spotify API error: %s", snippet(resp.Body))}
	}

	if !resp.IsJSON {
		return nil, &UpstreamError{Op: OpPlaylists, StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not valid JSON")}
	}

	return json.RawMessage(resp.Body), nil
}

// clientContext hands the service's HTTP client to [oauth2] token requests.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// ExpiresIn returns the lifetime the token endpoint reported in expires_in.
//
// Falls back to the time left until the token's Expiry as seen from now, and reports false when neither is
// available.
func ExpiresIn(token *oauth2.Token, now time.Time) (time.Duration, bool) {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second, true
	case int64:
		return time.Duration(v) * time.Second, true
	case string:
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(secs) * time.Second, true
		}
	}

	if !token.Expiry.IsZero() {
		return token.Expiry.Sub(now).Round(time.Second), true
	}
	return 0, false
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
