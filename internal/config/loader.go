package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the project-local config file name.
	ConfigFileName = ".nexusctl.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/nexusctl"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NEXUSCTL_API_BASE_URL.
	EnvPrefix = "NEXUSCTL"
)

// Load reads config from the specified path. An empty path loads defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'nexusctl config init' to create one, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .nexusctl.yaml in current directory
// 3. ~/.config/nexusctl/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if globalConfig := GlobalPath(); globalConfig != "" {
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/nexusctl/config.yaml, or "" without a home dir.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault finds and loads the config, falling back to defaults when
// no file exists. explicit is the --config flag value.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Session.File = Expand(cfg.Session.File)
	cfg.Log.File = Expand(cfg.Log.File)

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that the
// file does not mention.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout.String())
	v.SetDefault("api.network_retries", d.API.NetworkRetries)
	v.SetDefault("channel.path", d.Channel.Path)
	v.SetDefault("channel.legacy_marker", d.Channel.LegacyMarker)
	v.SetDefault("chart.seed_points", d.Chart.SeedPoints)
	v.SetDefault("snapshot.refresh_schedule", d.Snapshot.RefreshSchedule)
	v.SetDefault("session.file", d.Session.File)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.format", d.Log.Format)
}
