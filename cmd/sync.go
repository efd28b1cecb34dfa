package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncCategory    string
	syncMode        string
	syncParallel    bool
	syncMaxParallel int
	syncSkipDeps    bool
	syncForce       bool
	syncJSON        bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [tables...]",
	Short: "Synchronize legacy tables into the local datastore",
	Long: `Runs one synchronization pass. Without arguments every enabled table runs,
level by level. Named tables run in dependency order; a table whose dependencies
were never synchronized fails unless --skip-deps is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts, err := runOptions(cmd, rt.sync.Defaults())
		if err != nil {
			return err
		}
		opts.SkipDependencyCheck = syncSkipDeps
		opts.Force = syncForce

		rt.logger.Info("Starting synchronization",
			zap.Strings("tables", args),
			zap.String("category", syncCategory),
			zap.String("mode", string(opts.Mode)),
		)
		run, err := rt.sync.Sync(ctx, orchestrator.Selection{Tables: args, Category: syncCategory}, opts)
		if err != nil {
			return err
		}
		return reportRun(rt, run)
	},
}

// retryCmd represents the sync retry command
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-run every table whose last run failed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts, err := runOptions(cmd, rt.sync.Defaults())
		if err != nil {
			return err
		}

		rt.logger.Info("Retrying failed tables", zap.String("mode", string(opts.Mode)))
		run, err := rt.sync.Retry(ctx, opts)
		if err != nil {
			return err
		}
		if run.TotalTables == 0 {
			rt.logger.Info("No failed tables to retry.")
			return nil
		}
		return reportRun(rt, run)
	},
}

// tableCmd represents the sync table command
var tableCmd = &cobra.Command{
	Use:   "table <name>",
	Short: "Synchronize one table without checking its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		var mode reconcile.Mode
		if cmd.Flags().Changed("mode") {
			if mode, err = reconcile.ParseMode(syncMode); err != nil {
				return err
			}
		}

		res, err := rt.sync.SyncTable(ctx, args[0], mode)
		if syncJSON {
			if encErr := printJSON(res); encErr != nil {
				return encErr
			}
		} else {
			printTableResult(res)
		}
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("table %s finished with %d errors", res.Table, res.ErrorCount)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(retryCmd, tableCmd)

	syncCmd.PersistentFlags().StringVar(&syncMode, "mode", "", "Sync mode: incremental or full (default from config)")
	syncCmd.PersistentFlags().BoolVar(&syncParallel, "parallel", false, "Run the tables of a level concurrently")
	syncCmd.PersistentFlags().IntVar(&syncMaxParallel, "max-parallel", 0, "Maximum concurrent tables per level")
	syncCmd.PersistentFlags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")

	syncCmd.Flags().StringVar(&syncCategory, "category", "", "Only synchronize the tables of one category")
	syncCmd.Flags().BoolVar(&syncSkipDeps, "skip-deps", false, "Do not require dependencies to be synchronized")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Allow explicitly named disabled tables")
}

// signalContext cancels on SIGINT or SIGTERM; a running table stops between rows.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runOptions overlays the flags the user set on the configured defaults.
func runOptions(cmd *cobra.Command, defaults orchestrator.Options) (orchestrator.Options, error) {
	opts := defaults
	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := reconcile.ParseMode(syncMode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if flags.Changed("parallel") {
		opts.Parallel = syncParallel
	}
	if flags.Changed("max-parallel") {
		opts.MaxParallel = syncMaxParallel
	}
	return opts, nil
}

// reportRun prints the run and turns a failed run into an error for the exit code.
func reportRun(rt *runtime, run *reconcile.RunResult) error {
	if syncJSON {
		if err := printJSON(run); err != nil {
			return err
		}
	} else {
		printRunResult(run)
	}

	rt.logger.Info("Synchronization completed",
		zap.String("run_id", run.RunID),
		zap.Bool("success", run.Success),
		zap.Int("tables", run.TotalTables),
		zap.Int("failed_tables", run.FailedTables),
		zap.Int("inserted", run.RecordsInserted),
		zap.Int("updated", run.RecordsUpdated),
		zap.Int("errors", run.ErrorCount),
	)

	if run.Canceled {
		return fmt.Errorf("synchronization canceled, %d tables not started", len(run.NotStarted))
	}
	if !run.Success {
		return fmt.Errorf("synchronization finished with %d failed tables", run.FailedTables)
	}
	return nil
}

func printRunResult(run *reconcile.RunResult) {
	fmt.Printf("\n=== Synchronization %s (%s) ===\n", run.RunID, run.Mode)
	for _, res := range run.Tables {
		printTableResult(res)
	}
	fmt.Printf("\nTables: %d (ok %d, failed %d)\n", run.TotalTables, run.SuccessfulTables, run.FailedTables)
	fmt.Printf("Records: processed %d, inserted %d, updated %d, skipped %d\n",
		run.RecordsProcessed, run.RecordsInserted, run.RecordsUpdated, run.RecordsSkipped)
	fmt.Printf("Errors: %d\n", run.ErrorCount)
	if len(run.NotStarted) > 0 {
		fmt.Printf("Not started: %v\n", run.NotStarted)
	}
}

func printTableResult(res reconcile.SyncResult) {
	status := "ok"
	if !res.Success {
		status = "FAILED"
	}
	fmt.Printf("%-24s %-7s processed=%d inserted=%d updated=%d skipped=%d errors=%d (%dms)\n",
		res.Table, status, res.RecordsProcessed, res.RecordsInserted, res.RecordsUpdated,
		res.RecordsSkipped, res.ErrorCount, res.DurationMs)
	for _, sample := range res.ErrorSamples {
		fmt.Printf("    %s\n", sample)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
