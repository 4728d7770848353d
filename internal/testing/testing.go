// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/desertthunder/playlistd/internal/shared"
)

// Canned responses served by [FakeSpotify] until overridden.
const (
	ExchangeResponse  = `{"access_token":"A","token_type":"Bearer","refresh_token":"R","expires_in":3600,"scope":"user-read-private user-read-email"}`
	RefreshResponse   = `{"access_token":"A2","token_type":"Bearer","expires_in":3600,"scope":"user-read-private user-read-email"}`
	PlaylistsResponse = `{"href":"https://api.spotify.com/v1/me/playlists?offset=0&limit=20","items":[{"id":"37i9dQZF1DXcBWIGoYBM5M","name":"Today's Top Hits","tracks":{"total":50}}],"limit":20,"next":null,"offset":0,"previous":null,"total":1}`
)

type cannedResponse struct {
	status int
	body   string
}

// FakeSpotify is an httptest server standing in for the Spotify accounts service (/api/token) and Web API
// (/v1/me/playlists). It records every request it receives.
type FakeSpotify struct {
	Server *httptest.Server

	mu          sync.Mutex
	exchange    cannedResponse
	refresh     cannedResponse
	playlists   cannedResponse
	tokenForms  []url.Values
	authHeaders []string
}

// NewFakeSpotify starts a [FakeSpotify] that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		exchange:  cannedResponse{http.StatusOK, ExchangeResponse},
		refresh:   cannedResponse{http.StatusOK, RefreshResponse},
		playlists: cannedResponse{http.StatusOK, PlaylistsResponse},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.handleToken)
	mux.HandleFunc("GET /v1/me/playlists", f.handlePlaylists)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns Spotify settings pointing at the fake server.
func (f *FakeSpotify) Config() shared.SpotifyConfig {
	c := shared.DefaultConfig().Spotify
	c.ClientID = "test_client_id"
	c.ClientSecret = "test_client_secret"
	c.AuthURL = f.Server.URL + "/authorize"
	c.TokenURL = f.Server.URL + "/api/token"
	c.APIBaseURL = f.Server.URL + "/v1"
	return c
}

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.tokenForms = append(f.tokenForms, r.PostForm)
	var resp cannedResponse
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		resp = f.exchange
	case "refresh_token":
		resp = f.refresh
	default:
		resp = cannedResponse{http.StatusBadRequest, `{"error":"unsupported_grant_type"}`}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

func (f *FakeSpotify) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	resp := f.playlists
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

// SetExchangeResponse overrides the authorization_code grant response.
func (f *FakeSpotify) SetExchangeResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchange = cannedResponse{status, body}
}

// SetRefreshResponse overrides the refresh_token grant response.
func (f *FakeSpotify) SetRefreshResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = cannedResponse{status, body}
}

// SetPlaylistsResponse overrides the /me/playlists response.
func (f *FakeSpotify) SetPlaylistsResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists = cannedResponse{status, body}
}

// TokenRequests returns the form bodies posted to the token endpoint, in order.
func (f *FakeSpotify) TokenRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenForms...)
}

// PlaylistAuthHeaders returns the Authorization header of each /me/playlists request, in order.
func (f *FakeSpotify) PlaylistAuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter passes the first n writes to w and fails every write after that
type LimitedWriter struct {
	n int
	w io.Writer
}

func NewLimitedWriter(n int, w io.Writer) *LimitedWriter {
	return &LimitedWriter{n: n, w: w}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, errors.New("write limit reached")
	}
	l.n--
	return l.w.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
