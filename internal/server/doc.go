// Package server provides HTTP routing, middleware, and the OAuth and playlist handlers of the web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (first added is outermost). The [BasicRouter] implementation uses
// [http.ServeMux] "METHOD /path" patterns, so unsupported methods get a 405 from the mux itself.
//
// # Authorization Code Flow
//
// [OAuthHandler] serves /login, /callback and /refresh-token. Login stores a random nonce in the session and
// sends the browser to the provider with a signed state carrying that nonce ([StateSigner]). The callback
// rejects a state that is missing, expired, forged or issued for another session, exchanges the code and writes
// the access token, refresh token and expiry into the session.
//
// # Playlists
//
// [PlaylistHandler] redirects to /login without a token and to /refresh-token once the token has expired.
// Otherwise it makes a single upstream call and returns the JSON body as is.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
