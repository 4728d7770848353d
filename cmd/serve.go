package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playlistd/internal/server"
	"github.com/desertthunder/playlistd/internal/services"
	"github.com/desertthunder/playlistd/internal/session"
	"github.com/desertthunder/playlistd/internal/shared"
	"github.com/desertthunder/playlistd/internal/ui"
	"github.com/urfave/cli/v3"
)

const generatedSecretBytes = 32

// Serve validates the configuration, opens the session store and runs the web server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	secret, err := r.sessionSecret(config)
	if err != nil {
		return err
	}

	provider, err := services.NewSpotifyService(config.Spotify, r.httpClient)
	if err != nil {
		return err
	}

	store, closeStore, err := session.NewStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open %s session store: %w", config.Session.Store, err)
	}
	sessions := session.NewManager(store, closeStore, config.Session)
	defer func() {
		if err := sessions.Close(); err != nil {
			r.logger.Warn("failed to close session store", "error", err)
		}
	}()

	srv, err := server.New(server.Options{
		Config:   config,
		Provider: provider,
		Sessions: sessions,
		Logger:   r.logger,
		Secret:   secret,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("%s\n", banner(config))

	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(ctx, browseURL(config.Server)); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx)
}

// sessionSecret returns the configured secret, or a random one that only lives as long as the process.
func (r *Runner) sessionSecret(config *shared.Config) ([]byte, error) {
	if config.Session.Secret != "" {
		return []byte(config.Session.Secret), nil
	}

	secret, err := shared.GenerateSecret(generatedSecretBytes)
	if err != nil {
		return nil, err
	}
	r.logger.Warn("SESSION_SECRET is not set, using a generated secret; pending logins will not survive a restart")
	return secret, nil
}

// browseURL is the address a local browser should use to reach the server.
func browseURL(c shared.ServerConfig) string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d/", host, c.Port)
}

func banner(config *shared.Config) string {
	tokens := "provider expires_in"
	if config.Session.TokenLifetime > 0 {
		tokens = config.Session.TokenLifetime.String() + " (configured)"
	}

	return ui.Styles.Box(
		ui.Styles.Title("playlistd"),
		"listening  "+ui.Styles.OK(browseURL(config.Server)),
		"callback   "+config.Spotify.RedirectURI,
		"sessions   "+config.Session.Store,
		"tokens     "+tokens,
		ui.Styles.Help("metrics at /metrics, health at /health"),
	)
}
