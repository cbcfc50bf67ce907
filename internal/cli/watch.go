package cli

import (
	"github.com/spf13/cobra"

	"github.com/nexus-erp/nexusctl/internal/config"
	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/metrics"
	"github.com/nexus-erp/nexusctl/internal/watch"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live sales without a UI",
	Long: `Run the live sync headless, logging every channel change, sale and
snapshot. Useful under a process supervisor.

With --metrics-addr, Prometheus metrics are served at /metrics and a
liveness probe at /healthz.

Examples:
  nexusctl watch
  nexusctl watch --metrics-addr :9102
  NEXUSCTL_LOG_FORMAT=json nexusctl watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadOrDefault(configFlag)
		if err != nil {
			return err
		}

		zl, err := logger.NewZapProduction(cfg.Log.Format, debugFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Cannot set up logging", "")
		}
		defer func() { _ = zl.Sync() }()

		rt, err := newRuntime(cfg, logger.NewZap(zl))
		if err != nil {
			return err
		}

		return watch.Run(cmd.Context(), watch.Options{
			Guard: rt.guard,
			NewEngine: func(obs engine.Observer) watch.Engine {
				return rt.newEngine(obs, nil)
			},
			Logger:      zl,
			Collector:   metrics.NewCollector(),
			MetricsAddr: watchMetricsAddr,
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9102")
	rootCmd.AddCommand(watchCmd)
}
