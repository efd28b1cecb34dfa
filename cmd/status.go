package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusJSON bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state of every catalog table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		status, err := rt.sync.Status(cmd.Context())
		if err != nil {
			return err
		}
		if statusJSON {
			return printJSON(status)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tLEVEL\tCATEGORY\tENABLED\tLAST SYNCED\tRUNS\tFAILED\tLAST ERROR")
		for _, t := range status.Tables {
			lastErr := ""
			if t.LastErrorSummary != nil {
				lastErr = firstLine(*t.LastErrorSummary)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%t\t%s\t%d\t%d\t%s\n",
				t.Table, t.Level, t.Category, t.Enabled, formatTime(t.LastSyncedAt),
				t.TotalRuns, t.FailedRuns, lastErr)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		totals := status.Totals
		fmt.Printf("\nTables: %d (synchronized %d, never synced %d, with errors %d)\n",
			totals.Tables, totals.Synchronized, totals.NeverSynced, totals.WithErrors)
		fmt.Printf("Runs: %d (ok %d, failed %d)\n", totals.TotalRuns, totals.SuccessfulRuns, totals.FailedRuns)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
