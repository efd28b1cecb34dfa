package cmd

import (
	"errors"
	"fmt"

	"legacy-mirror/core/registry"
	"legacy-mirror/core/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	metaPrimaryKey     string
	metaWatermarkField string
	metaBatchSize      int
)

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and adjust the per-table sync state",
}

// resetCmd represents the state reset command
var resetCmd = &cobra.Command{
	Use:   "reset <table>",
	Short: "Clear a table's watermark so the next run pulls every row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		table := args[0]
		if _, ok := rt.registry.Lookup(table); !ok {
			return fmt.Errorf("unknown table %s", table)
		}
		err = rt.state.Reset(ctx, table)
		if errors.Is(err, state.ErrNotFound) {
			rt.logger.Info("Table was never synchronized, nothing to reset.", zap.String("table", table))
			return nil
		}
		if err != nil {
			return err
		}
		rt.logger.Info("Watermark reset", zap.String("table", table))
		return nil
	},
}

// setMetaCmd represents the state set-meta command
var setMetaCmd = &cobra.Command{
	Use:   "set-meta <table>",
	Short: "Override a table's primary key, watermark field or batch size",
	Long: `Stores operator overrides next to the table's sync state. They replace the
catalog values on every later run. Flags that are not given keep no override.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		table := args[0]
		desc, ok := rt.registry.Lookup(table)
		if !ok {
			return fmt.Errorf("unknown table %s", table)
		}

		o := registry.Overrides{
			PrimaryKey:     metaPrimaryKey,
			WatermarkField: metaWatermarkField,
		}
		if cmd.Flags().Changed("batch-size") {
			o.BatchSize = &metaBatchSize
		}
		applied, err := desc.Apply(o)
		if err != nil {
			return err
		}
		if err := rt.state.SetOverrides(ctx, table, o); err != nil {
			return err
		}

		rt.logger.Info("Overrides stored",
			zap.String("table", table),
			zap.String("primary_key", applied.PrimaryKey),
			zap.String("watermark_field", applied.WatermarkField),
			zap.Int("batch_size", applied.BatchSize),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(resetCmd, setMetaCmd)

	setMetaCmd.Flags().StringVar(&metaPrimaryKey, "primary-key", "", "Natural key field")
	setMetaCmd.Flags().StringVar(&metaWatermarkField, "watermark-field", "", "Change timestamp field")
	setMetaCmd.Flags().IntVar(&metaBatchSize, "batch-size", 0, "Rows pulled per run, 0 for unbounded")
}
