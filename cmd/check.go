package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkJSON bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the target schema and the report archive",
	Long: `Checks that every enabled table has its target entity with the primary key,
watermark and touch columns, and that the report archive bucket is reachable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		logg := rt.logger

		logg.Info("Checking target schema integrity...")
		report, err := rt.integrity.Check(ctx)
		if err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		if checkJSON {
			if err := printJSON(report); err != nil {
				return err
			}
		}

		if report.Schema.Matched {
			logg.Info("Target schema matches the table catalog.", zap.Int("tables", len(report.Schema.Tables)))
		} else {
			logg.Warn("Target schema mismatches found")
		}
		for _, t := range report.Schema.Tables {
			if !t.Exists {
				logg.Warn("Missing Entity", zap.String("table", t.Table), zap.String("entity", t.Entity))
				continue
			}
			if len(t.MissingColumns) > 0 {
				logg.Warn("Missing Columns", zap.String("table", t.Table), zap.Strings("columns", t.MissingColumns))
			}
			for _, w := range t.Warnings {
				logg.Warn("Schema Warning", zap.String("table", t.Table), zap.String("warning", w))
			}
		}
		for _, e := range report.Schema.Errors {
			logg.Error("Inspection Error", zap.String("error", e))
		}

		switch report.Storage.Status {
		case "disabled":
			logg.Info("Report archive is disabled.")
		case "ok":
			logg.Info("Report archive is reachable.", zap.String("bucket", report.Storage.Bucket))
		default:
			logg.Warn("Report archive check failed",
				zap.String("bucket", report.Storage.Bucket),
				zap.Bool("exists", report.Storage.Exists),
				zap.String("error", report.Storage.Error),
			)
		}

		if !report.Matched {
			return fmt.Errorf("integrity check found problems")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
}
