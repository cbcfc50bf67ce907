package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

// Global flags
var (
	configFlag  string
	noColorFlag bool
	debugFlag   bool
)

// rootCmd is the nexusctl command.
var rootCmd = &cobra.Command{
	Use:   "nexusctl",
	Short: "Nexus ERP operations console",
	Long: `nexusctl keeps an eye on a Nexus ERP backend from the terminal.

It shows today's sales, low stock and the average ticket, updated live as
sales are recorded, plus a rolling chart of recent sales.

Examples:
  nexusctl login
  nexusctl dashboard
  nexusctl snapshot --json
  nexusctl watch --metrics-addr :9102`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
		if debugFlag {
			_ = os.Setenv(logger.DebugEnv, "1")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: ./.nexusctl.yaml or ~/.config/nexusctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func printError(err error) {
	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
		return
	}
	if isUnknownCommandError(err) {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle().Render(ui.SymbolFail)+" "+err.Error())
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\n  '%s' isn't a nexusctl command. Run 'nexusctl --help' to see what is.\n", name)
		}
		return
	}
	var nxErr *errors.Error
	if stderrors.As(err, &nxErr) {
		fmt.Fprint(os.Stderr, nxErr.Error())
		return
	}
	fmt.Fprintln(os.Stderr, ui.ErrorStyle().Render(ui.SymbolFail)+" "+err.Error())
}

// isUnknownCommandError reports cobra's unknown command and flag errors.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of `unknown command "foo" for "nexusctl"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
