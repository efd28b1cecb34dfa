package cmd

import (
	"fmt"
	"os"

	"legacy-mirror/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir is the directory the .env file is read from.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "legacy-mirror",
	Short: "Legacy Database Mirror",
	Long: `Legacy Mirror keeps a local datastore in step with the legacy business database.
It pulls changed rows table by table in dependency order, maps them into the
local schema and records a watermark per table so every run resumes where the
last one stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding with the development config gives readable timestamps on a terminal
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding the .env file")
}
