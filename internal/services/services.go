// package services defines the [Provider] interface for the music API the web server logs in against
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/playlistd/internal/shared"
	"golang.org/x/oauth2"
)

// Provider is the OAuth2 authorization server and resource API used by the HTTP handlers.
type Provider interface {
	// AuthURL returns the authorization URL the browser is redirected to, carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for an access/refresh token pair.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh mints a new access token from refreshToken.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// Playlists fetches the current user's playlists and returns the JSON body unmodified.
	Playlists(ctx context.Context, accessToken string) (json.RawMessage, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// Upstream operations reported in [UpstreamError.Op].
const (
	OpExchange  = "exchange"
	OpRefresh   = "refresh"
	OpPlaylists = "playlists"
)

// UpstreamError reports a failed call to the provider: network failure, non-2xx status or a malformed body.
//
// It matches [shared.ErrAPIRequest] with [errors.Is].
type UpstreamError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == shared.ErrAPIRequest
}

// upstreamError classifies err from an oauth2 token request.
func upstreamError(op string, err error) *UpstreamError {
	ue := &UpstreamError{Op: op, Err: err}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		ue.StatusCode = re.Response.StatusCode
	}
	return ue
}
