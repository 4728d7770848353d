package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 5005 {
			t.Errorf("expected server port 5005, got %d", config.Server.Port)
		}

		if config.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", config.Server.Host)
		}

		if config.Spotify.RedirectURI != "http://localhost:5005/callback" {
			t.Errorf("unexpected redirect uri %s", config.Spotify.RedirectURI)
		}

		if config.Spotify.Timeout != 10*time.Second {
			t.Errorf("expected 10s upstream timeout, got %v", config.Spotify.Timeout)
		}

		if config.Session.Store != StoreMemory {
			t.Errorf("expected memory session store, got %s", config.Session.Store)
		}

		if config.Session.TokenLifetime != 0 {
			t.Errorf("expected provider token lifetime by default, got %v", config.Session.TokenLifetime)
		}

		if len(config.Spotify.Scopes) != 2 || config.Spotify.Scopes[0] != "user-read-private" || config.Spotify.Scopes[1] != "user-read-email" {
			t.Errorf("unexpected scopes %v", config.Spotify.Scopes)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Server.Port != DefaultConfig().Server.Port {
			t.Errorf("created config port doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[server]
port = 8080

[session]
store = "sqlite"
token_lifetime = "10s"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Spotify.ClientID)
		}

		if config.Session.TokenLifetime != 10*time.Second {
			t.Errorf("expected token lifetime 10s, got %v", config.Session.TokenLifetime)
		}

		if config.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("expected default token url to survive partial config, got %s", config.Spotify.TokenURL)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Load With Environment", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("CLIENT_ID", "env_id")
		t.Setenv("CLIENT_SECRET", "env_secret")
		t.Setenv("PORT", "6006")
		t.Setenv("SESSION_SECRET", "s3cret")
		t.Setenv("TOKEN_LIFETIME", "10s")

		config, err := Load("missing.toml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Spotify.ClientID != "env_id" || config.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected credentials from env, got %s/%s", config.Spotify.ClientID, config.Spotify.ClientSecret)
		}
		if config.Server.Port != 6006 {
			t.Errorf("expected port 6006, got %d", config.Server.Port)
		}
		if config.Session.Secret != "s3cret" {
			t.Errorf("expected session secret from env, got %s", config.Session.Secret)
		}
		if config.Session.TokenLifetime != 10*time.Second {
			t.Errorf("expected token lifetime 10s, got %v", config.Session.TokenLifetime)
		}
		if config.Server.Host != "0.0.0.0" {
			t.Errorf("expected unset env to keep default host, got %s", config.Server.Host)
		}
	})

	t.Run("Load With Dotenv", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLIENT_ID=dotenv_id\nCLIENT_SECRET=dotenv_secret\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("CLIENT_ID")
			os.Unsetenv("CLIENT_SECRET")
		})

		config, err := Load("")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Spotify.ClientID != "dotenv_id" {
			t.Errorf("expected client id from .env, got %s", config.Spotify.ClientID)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := func() *Config {
			c := DefaultConfig()
			c.Spotify.ClientID = "id"
			c.Spotify.ClientSecret = "secret"
			return c
		}

		if err := valid().Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		c := valid()
		c.Spotify.ClientSecret = ""
		if err := c.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		c = valid()
		c.Session.Store = "memcached"
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for unknown store, got %v", err)
		}

		c = valid()
		c.Server.Port = 0
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for port 0, got %v", err)
		}
	})
}
