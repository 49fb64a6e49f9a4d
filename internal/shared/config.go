package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Provider    ProviderConfig    `toml:"provider"`
	Server      ServerConfig      `toml:"server"`
	Client      ClientConfig      `toml:"client"`
	Database    DatabaseConfig    `toml:"database"`
	Session     SessionConfig     `toml:"session"`
	Admin       AdminConfig       `toml:"admin"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// ProviderConfig holds the OAuth and Web API endpoints of the provider.
type ProviderConfig struct {
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`
	APIURL   string `toml:"api_url"`
}

// ServerConfig contains HTTP server settings for the token exchange backend.
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	ExchangePath        string   `toml:"exchange_path"`
	AllowedOrigins      []string `toml:"allowed_origins"`
	SignupRatePerMinute int      `toml:"signup_rate_per_minute"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientConfig contains settings used by the CLI and TUI.
type ClientConfig struct {
	BackendURL     string `toml:"backend_url"`
	ExchangeURL    string `toml:"exchange_url"`
	CallbackHost   string `toml:"callback_host"`
	CallbackPort   int    `toml:"callback_port"`
	TimeRange      string `toml:"time_range"`
	Limit          int    `toml:"limit"`
	SearchDebounce string `toml:"search_debounce"`
}

// Debounce parses SearchDebounce, falling back to 300ms.
func (c ClientConfig) Debounce() time.Duration {
	d, err := time.ParseDuration(c.SearchDebounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SessionConfig locates the client-side key-value store.
type SessionConfig struct {
	Path string `toml:"path"`
}

// AdminConfig names the administrator identity allowed to manage pending signups.
type AdminConfig struct {
	Email string `toml:"email"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// ClientCredentials is the immutable set of values the token exchange needs.
//
// It is built once at startup and handed to the exchange handler by value.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenURL     string
}

// ClientCredentials extracts the exchange credentials from the config.
func (c *Config) ClientCredentials() ClientCredentials {
	return ClientCredentials{
		ClientID:     c.Credentials.Spotify.ClientID,
		ClientSecret: c.Credentials.Spotify.ClientSecret,
		RedirectURI:  c.Credentials.Spotify.RedirectURI,
		TokenURL:     c.Provider.TokenURL,
	}
}

// Validate checks the settings required to run the exchange backend.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		missing = append(missing, "redirect_uri")
	}
	if c.Provider.TokenURL == "" {
		missing = append(missing, "token_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if c.Server.ExchangePath == "" || !strings.HasPrefix(c.Server.ExchangePath, "/") {
		return fmt.Errorf("%w: exchange_path must start with /", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
