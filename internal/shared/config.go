package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Session store backends accepted by [SessionConfig.Store].
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig contains Spotify application credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string        `toml:"client_id" env:"CLIENT_ID"`
	ClientSecret string        `toml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURI  string        `toml:"redirect_uri" env:"REDIRECT_URI"`
	AuthURL      string        `toml:"auth_url"`
	TokenURL     string        `toml:"token_url"`
	APIBaseURL   string        `toml:"api_base_url"`
	Scopes       []string      `toml:"scopes"`
	Timeout      time.Duration `toml:"timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `toml:"host" env:"HOST"`
	Port              int           `toml:"port" env:"PORT"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig contains session cookie and token policy settings.
type SessionConfig struct {
	Secret        string        `toml:"secret" env:"SESSION_SECRET"`
	Store         string        `toml:"store" env:"SESSION_STORE"`
	Lifetime      time.Duration `toml:"lifetime"`
	CookieName    string        `toml:"cookie_name"`
	CookieSecure  bool          `toml:"cookie_secure"`
	TokenLifetime time.Duration `toml:"token_lifetime" env:"TOKEN_LIFETIME"`
}

// DatabaseConfig contains SQLite settings for the sqlite session store.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains connection settings for the redis session store.
type RedisConfig struct {
	Addr     string `toml:"addr" env:"REDIS_ADDR"`
	Password string `toml:"password" env:"REDIS_PASSWORD"`
	DB       int    `toml:"db" env:"REDIS_DB"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

// Load builds the effective configuration: embedded defaults, then the TOML file at path (if it exists), then
// variables from a .env file in the working directory and the process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()
	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			config = loaded
		case !errors.Is(err, ErrMissingConfig):
			return nil, err
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path on top of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides config fields from environment variables. Unset variables leave fields untouched.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports missing credentials and unknown settings.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: CLIENT_ID and CLIENT_SECRET must be set", ErrMissingCredentials)
	}
	if c.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: redirect_uri is empty", ErrInvalidConfig)
	}
	if !slices.Contains([]string{StoreMemory, StoreSQLite, StoreRedis}, c.Session.Store) {
		return fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, c.Session.Store)
	}
	if c.Session.TokenLifetime < 0 {
		return fmt.Errorf("%w: token_lifetime must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
