package config

import "time"

// Config holds runtime settings for the fieldentry CLI.
//
// Fields:
//   - BackendURL: base URL of the ERP backend.
//   - IdentityURL: token-refresh endpoint of the identity provider.
//   - DatabasePath: path of the local SQLite database.
//   - OnlineCheckInterval: how often the client probes backend reachability.
type Config struct {
	BackendURL          string
	IdentityURL         string
	DatabasePath        string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:8080"
	c.IdentityURL = "http://127.0.0.1:8080/auth/refresh"
	c.DatabasePath = "fieldentry.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
