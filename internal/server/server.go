package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistd/internal/services"
	"github.com/desertthunder/playlistd/internal/session"
	"github.com/desertthunder/playlistd/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const defaultShutdownTimeout = 5 * time.Second

// Options contains the dependencies of a [Server].
type Options struct {
	Config   *shared.Config
	Provider services.Provider
	Sessions *session.Manager
	Logger   *log.Logger
	Metrics  *Metrics
	// Secret signs the OAuth state parameter.
	Secret []byte
	// Now defaults to [time.Now].
	Now func() time.Time
}

// Server wires the OAuth and playlist handlers behind the session middleware.
type Server struct {
	config  *shared.Config
	logger  *log.Logger
	metrics *Metrics
	router  *BasicRouter
}

// New builds a [Server] and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: server config is required", shared.ErrMissingConfig)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: provider is required", shared.ErrServiceUnavailable)
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("%w: session manager is required", shared.ErrInvalidConfig)
	}
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("%w: session secret is empty", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	opts.Sessions.SetErrorFunc(func(w http.ResponseWriter, r *http.Request, err error) {
		logger := requestLogger(opts.Logger, r)
		logger.Error("session store failure", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "session_error", "session could not be loaded or saved")
	})

	oauth := &OAuthHandler{
		provider:      opts.Provider,
		sessions:      opts.Sessions,
		state:         NewStateSigner(opts.Secret, stateTTL),
		tokenLifetime: opts.Config.Session.TokenLifetime,
		now:           opts.Now,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
	playlists := &PlaylistHandler{
		provider: opts.Provider,
		sessions: opts.Sessions,
		now:      opts.Now,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger, opts.Metrics), Recoverer(opts.Logger))
	router.Handle(http.MethodGet, "/metrics", opts.Metrics.Handler())

	router.Use(opts.Sessions.Middleware)
	router.Handle(http.MethodGet, "/{$}", IndexHandler(opts.Provider.Name()))
	router.Handle(http.MethodGet, "/health", HealthHandler(opts.Sessions, opts.Logger))
	router.Handler(oauth)
	router.Handler(playlists)

	return &Server{
		config:  opts.Config,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		router:  router,
	}, nil
}

// Handler returns the root handler with every route registered.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
