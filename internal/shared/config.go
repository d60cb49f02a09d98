package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// DefaultSessionSecret is the placeholder secret shipped in the example config.
	DefaultSessionSecret = "dev-secret-key"
	// DefaultAPIKey is the placeholder YouTube Data API key shipped in the example config.
	DefaultAPIKey = "your-api-key"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Session SessionConfig `toml:"session"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SessionConfig contains the cookie signing secret.
type SessionConfig struct {
	Secret string `toml:"secret"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the metadata lookup timeout, defaulting to ten seconds.
func (y YouTubeConfig) Timeout() time.Duration {
	if y.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(y.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL          string `toml:"url"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	Env                string `toml:"env"`
	LoginRatePerMinute int    `toml:"login_rate_per_minute"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDevelopment reports whether the server runs in development mode.
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "" || s.Env == EnvDevelopment
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values from the process environment.
//
// lookup is normally [os.LookupEnv]; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := lookup("SESSION_SECRET"); ok && v != "" {
		c.Credentials.Session.Secret = v
	}
	if v, ok := lookup("YOUTUBE_API_KEY"); ok && v != "" {
		c.Credentials.YouTube.APIKey = v
	}
	if v, ok := lookup("LECTURES_ENV"); ok && v != "" {
		c.Server.Env = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT must be a number, got %q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that the configuration is usable and that placeholder secrets are only used in development.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("%w: database url is empty", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Credentials.Session.Secret == "" {
		return fmt.Errorf("%w: session secret is empty", ErrInvalidConfig)
	}
	if !c.Server.IsDevelopment() && c.Credentials.Session.Secret == DefaultSessionSecret {
		return fmt.Errorf("%w: default session secret used in %s", ErrInsecureConfig, c.Server.Env)
	}
	return nil
}
