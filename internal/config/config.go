package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Backend BackendConfig `mapstructure:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// BackendConfig configures the analysis backend client.
// Durations are stored as strings ("20m", "30s") so they round-trip
// cleanly through YAML and environment variables; use the *Duration
// accessors after validation.
type BackendConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	AnalyzeTimeout    string `mapstructure:"analyze_timeout"`
	RequestTimeout    string `mapstructure:"request_timeout"`
	MaxRetries        int    `mapstructure:"max_retries"`
	MinSubmitInterval string `mapstructure:"min_submit_interval"`
}

// AnalyzeTimeoutDuration returns the parsed analyze timeout.
// Call only after validation; invalid values return zero.
func (c BackendConfig) AnalyzeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AnalyzeTimeout)
	return d
}

// RequestTimeoutDuration returns the parsed per-request timeout.
func (c BackendConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// MinSubmitIntervalDuration returns the parsed minimum spacing
// between analysis submissions.
func (c BackendConfig) MinSubmitIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MinSubmitInterval)
	return d
}

// CacheConfig configures the local analysis cache.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig configures the analysis history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ServerConfig configures the local HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}
