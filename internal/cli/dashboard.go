package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nexus-erp/nexusctl/internal/dashboard"
	"github.com/nexus-erp/nexusctl/internal/engine"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

// dashboardLogFile is the default log file, under the temp dir.
const dashboardLogFile = "nexusctl-dashboard.log"

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live operations dashboard",
	Long: `Show today's sales, low stock, the average ticket and a rolling sales
chart, updated live as sales are recorded.

Keys:
  r        refresh now
  L        sign out
  ?        toggle help
  q        quit

Logs go to the file set by log.file (default: a file in the temp dir).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(logger.NewEnvLogger("[dashboard]"))
		if err != nil {
			return err
		}

		logPath := rt.cfg.Log.File
		if logPath == "" {
			logPath = filepath.Join(os.TempDir(), dashboardLogFile)
		}
		f, err := tea.LogToFile(logPath, "nexusctl")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open log file "+logPath,
				"Set log.file to a writable path")
		}
		defer f.Close()

		return runDashboard(cmd.Context(), rt, cmd.OutOrStdout(), isInteractive(), runDashboardProgram)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardRunner runs one dashboard session. Swapped out in tests.
type dashboardRunner func(ctx context.Context, opts dashboard.Options) (dashboard.Outcome, error)

func runDashboardProgram(ctx context.Context, opts dashboard.Options) (dashboard.Outcome, error) {
	return dashboard.Run(ctx, opts)
}

// runDashboard shows the dashboard, signing in again and restarting it when
// the session ends on a terminal. An operator logout ends the command.
func runDashboard(ctx context.Context, rt *cmdEnv, w io.Writer, interactive bool, run dashboardRunner) error {
	opts := dashboard.Options{
		Guard: rt.guard,
		NewEngine: func(obs engine.Observer) dashboard.Engine {
			return rt.newEngine(obs, nil)
		},
	}

	for {
		out, err := run(ctx, opts)
		if err != nil {
			return err
		}
		if !out.Redirected || ctx.Err() != nil {
			return nil
		}
		if out.Reason == "logout" {
			ui.PrintSuccess(w, "Signed out")
			return nil
		}
		if !interactive {
			return sessionEnded(out.Reason)
		}

		ui.PrintWarning(w, sessionEnded(out.Reason).Message)
		if err := reauthenticate(ctx, rt, w); err != nil {
			return err
		}
	}
}

// reauthenticate prompts until a login succeeds or the form is cancelled.
func reauthenticate(ctx context.Context, rt *cmdEnv, w io.Writer) error {
	for {
		creds, err := readCredentials("", true)
		if err != nil {
			return err
		}
		err = login(ctx, rt, creds, w)
		if err == nil {
			return nil
		}
		if !errors.IsCode(err, errors.ErrAuth) {
			return err
		}
		fmt.Fprint(w, err.Error())
	}
}

func sessionEnded(reason string) *errors.Error {
	if reason == "" || reason == "no active session" {
		return errors.New(errors.ErrUnauthorized,
			"Not signed in",
			"Run 'nexusctl login' first")
	}
	return errors.New(errors.ErrUnauthorized,
		"Session ended: "+reason,
		"Run 'nexusctl login' to sign in again")
}
