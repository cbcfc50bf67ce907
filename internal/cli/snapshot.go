package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nexus-erp/nexusctl/internal/session"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

var snapshotJSON bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the current dashboard metrics once",
	Long: `Fetch today's sales, low stock count, average ticket and the AI alert
once and print them.

Examples:
  nexusctl snapshot
  nexusctl snapshot --json | jq .data.sales_today`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotJSON {
			machineMode = true
		}
		rt, err := loadRuntime(nil)
		if err != nil {
			return err
		}
		return printSnapshot(cmd.Context(), rt, cmd.OutOrStdout(), snapshotJSON)
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(snapshotCmd)
}

func printSnapshot(ctx context.Context, rt *cmdEnv, w io.Writer, asJSON bool) error {
	if !rt.guard.RequireSession(session.ViewSnapshot) {
		return sessionEnded("")
	}

	fetcher := rt.newFetcher()
	if asJSON {
		snap, err := fetcher.Refresh(ctx)
		if err != nil {
			return err
		}
		return WriteJSONSuccess(w, snap)
	}

	spin := ui.NewSpinner(w, "Fetching dashboard")
	spin.Start()
	snap, err := fetcher.Refresh(ctx)
	if err != nil {
		spin.Fail()
		return err
	}
	spin.Success()
	writeSnapshotText(w, snap)
	return nil
}

func writeSnapshotText(w io.Writer, snap snapshot.Snapshot) {
	d := snapshot.NewDisplay()
	d.Apply(snap)

	label := ui.MutedStyle()
	fmt.Fprintf(w, "  %s %s\n", label.Render("Sales today   "), d.Sales)
	fmt.Fprintf(w, "  %s %s\n", label.Render("Low stock     "), d.LowStock)
	fmt.Fprintf(w, "  %s %s\n", label.Render("Average ticket"), d.Ticket)
	if d.AlertVisible {
		fmt.Fprintln(w)
		ui.PrintWarning(w, "AI alert: "+d.AlertText)
	}
	fmt.Fprintf(w, "\n  %s\n", label.Render("fetched "+humanize.Time(d.UpdatedAt)))
}
