package shared

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override values from config.toml.
const (
	EnvClientID     = "STATIFY_CLIENT_ID"
	EnvClientSecret = "STATIFY_CLIENT_SECRET"
	EnvRedirectURI  = "STATIFY_REDIRECT_URI"
	EnvAdminEmail   = "STATIFY_ADMIN_EMAIL"
	EnvExchangeURL  = "STATIFY_EXCHANGE_URL"
)

// LoadDotEnv loads the given .env files into the process environment.
//
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overlays non-empty environment variables onto the config.
func ApplyEnv(c *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Credentials.Spotify.ClientID, EnvClientID)
	set(&c.Credentials.Spotify.ClientSecret, EnvClientSecret)
	set(&c.Credentials.Spotify.RedirectURI, EnvRedirectURI)
	set(&c.Admin.Email, EnvAdminEmail)
	set(&c.Client.ExchangeURL, EnvExchangeURL)
}

// Load builds the process configuration: defaults, then config file (if present), then
// .env and environment overrides.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	LoadDotEnv(".env")
	ApplyEnv(config)
	return config, nil
}
