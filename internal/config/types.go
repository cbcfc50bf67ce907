package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete nexusctl configuration file.
type Config struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Channel  ChannelConfig  `yaml:"channel" mapstructure:"channel"`
	Chart    ChartConfig    `yaml:"chart" mapstructure:"chart"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Session  SessionConfig  `yaml:"session" mapstructure:"session"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig controls how the backend is reached.
type APIConfig struct {
	// BaseURL is the backend HTTP address. The push channel address is
	// derived from it.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// NetworkRetries is how many extra attempts a request gets after a
	// transport failure. HTTP error responses are never retried.
	NetworkRetries int `yaml:"network_retries" mapstructure:"network_retries"`
}

// ChannelConfig controls the push channel.
type ChannelConfig struct {
	Path string `yaml:"path" mapstructure:"path"`

	// LegacyMarker is the plain-text payload older backends send for a sale.
	LegacyMarker string `yaml:"legacy_marker" mapstructure:"legacy_marker"`
}

// ChartConfig controls the sales chart.
type ChartConfig struct {
	// SeedPoints is how many synthetic points the chart starts with.
	SeedPoints int `yaml:"seed_points" mapstructure:"seed_points"`
}

// SnapshotConfig controls snapshot refreshes.
type SnapshotConfig struct {
	// RefreshSchedule is an optional cron expression for periodic refreshes,
	// e.g. "*/5 * * * *" or "@every 1m". Empty disables it.
	RefreshSchedule string `yaml:"refresh_schedule" mapstructure:"refresh_schedule"`
}

// SessionConfig controls where the session token is kept.
type SessionConfig struct {
	// File overrides the session file path. Empty uses the default.
	File string `yaml:"file" mapstructure:"file"`
}

// LogConfig controls log output.
type LogConfig struct {
	// File receives dashboard logs. Empty uses a file in the temp dir.
	File string `yaml:"file" mapstructure:"file"`

	// Format is "text" or "json" for the watch command.
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			Timeout:        10 * time.Second,
			NetworkRetries: 2,
		},
		Channel: ChannelConfig{
			Path:         "/ws",
			LegacyMarker: "NUEVA_VENTA",
		},
		Chart: ChartConfig{
			SeedPoints: 15,
		},
		Log: LogConfig{
			Format: "text",
		},
	}
}
