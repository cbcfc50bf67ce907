package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/nexus-erp/nexusctl/internal/errors"
)

// MaxSeedPoints matches the chart capacity.
const MaxSeedPoints = 20

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but nexusctl only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade nexusctl to the latest release.")
	}

	if err := validateAPI(cfg.API); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'api' section of your config.")
	}

	if err := validateChannel(cfg.Channel); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'channel' section of your config.")
	}

	if cfg.Chart.SeedPoints < 0 || cfg.Chart.SeedPoints > MaxSeedPoints {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("chart.seed_points must be between 0 and %d, got %d", MaxSeedPoints, cfg.Chart.SeedPoints),
			"The chart holds at most 20 points.")
	}

	if err := ValidateSchedule(cfg.Snapshot.RefreshSchedule); err != nil {
		return err
	}

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("log.format must be 'text' or 'json', got '%s'", cfg.Log.Format),
			"Pick one of: text, json")
	}

	return nil
}

func validateAPI(api APIConfig) error {
	if api.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url '%s' is not a valid URL: %v", api.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got '%s'", api.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url '%s' has no host", api.BaseURL)
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if api.NetworkRetries < 0 {
		return fmt.Errorf("api.network_retries must not be negative, got %d", api.NetworkRetries)
	}
	return nil
}

func validateChannel(ch ChannelConfig) error {
	if ch.Path != "" && !strings.HasPrefix(ch.Path, "/") {
		return fmt.Errorf("channel.path must start with '/', got '%s'", ch.Path)
	}
	return nil
}

// ValidateSchedule checks a refresh schedule. An empty schedule is valid.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("snapshot.refresh_schedule '%s' is not a valid cron expression", expr),
			"Use a 5-field cron expression like '*/5 * * * *' or a descriptor like '@every 1m'.")
	}
	return nil
}
