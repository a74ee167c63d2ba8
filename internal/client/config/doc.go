// Package config loads runtime configuration for the fieldentry CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the ERP backend
//	-t string   token refresh endpoint URL
//	-d string   path of the local database file
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "backend_url": "http://127.0.0.1:8080",
//	  "identity_url": "http://127.0.0.1:8080/auth/refresh",
//	  "database_path": "fieldentry.db",
//	  "online_check_interval": "3s"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the client
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
