// Package services defines the [Provider] interface for OAuth2 music providers and implements it for Spotify.
//
// # Provider Interface
//
// The web handlers only depend on [Provider]: building the authorization URL, the two token grants, and the single
// resource call they proxy.
//
// # Spotify Implementation
//
// [SpotifyService] wraps an [oauth2.Config] with the Spotify accounts endpoints. Client credentials are sent in
// the form body ([oauth2.AuthStyleInParams]). Every outbound request, including token grants, goes through one
// [http.Client] with a bounded timeout.
//
// Tokens are not refreshed implicitly: callers decide when an access token has expired and call
// [SpotifyService.Refresh] themselves.
//
// # Error Handling
//
// Failed upstream calls return [*UpstreamError], which records the operation and the HTTP status (when a
// response was received) and matches [shared.ErrAPIRequest]. Nothing is retried.
package services
