package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nexus-erp/nexusctl/internal/config"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

var (
	configGlobal bool
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the nexusctl config file",
	Long: `Create, inspect and edit the nexusctl config file.

Search order: --config, ./.nexusctl.yaml, ~/.config/nexusctl/config.yaml.
Any key can also be overridden with a NEXUSCTL_ environment variable, e.g.
NEXUSCTL_API_BASE_URL.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot write "+path,
				"Use --force to overwrite an existing file")
		}
		ui.PrintSuccess(cmd.OutOrStdout(), "Wrote "+path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a dotted config key, keeping the rest of the file as is.

Examples:
  nexusctl config set api.base_url https://erp.example.com
  nexusctl config set snapshot.refresh_schedule "@every 1m"
  nexusctl config set --global chart.seed_points 10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		return setConfigValue(cmd.OutOrStdout(), path, args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in effect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(configFlag)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle().Render("no config file, using defaults"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config, after defaults and env overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadOrDefault(configFlag)
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configGlobal, "global", false, "write ~/.config/nexusctl/config.yaml")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configSetCmd.Flags().BoolVar(&configGlobal, "global", false, "edit ~/.config/nexusctl/config.yaml")

	configCmd.AddCommand(configInitCmd, configSetCmd, configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configTarget picks the file init and set write to: --config, then the
// global file with --global, then ./.nexusctl.yaml.
func configTarget() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if configGlobal {
		p := config.GlobalPath()
		if p == "" {
			return "", errors.New(errors.ErrConfig,
				"Cannot determine home directory",
				"Pass --config with an explicit path")
		}
		return p, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory", "")
	}
	return filepath.Join(cwd, config.ConfigFileName), nil
}

// setConfigValue writes the key and checks the resulting file still loads
// and validates.
func setConfigValue(w io.Writer, path, key, value string) error {
	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot set "+key,
			"Keys are dotted paths such as api.base_url")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	ui.PrintSuccess(w, fmt.Sprintf("Set %s = %s in %s", key, value, path))
	return nil
}

func showConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot encode config", "")
	}
	return enc.Close()
}
