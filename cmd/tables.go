package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tablesJSON bool

// tablesCmd represents the tables command
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the table catalog in dependency order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		levels := rt.sync.Tables()
		if tablesJSON {
			return printJSON(levels)
		}

		for _, lvl := range levels {
			fmt.Printf("Level %d\n", lvl.Number)
			for _, t := range lvl.Tables {
				flags := ""
				if !t.Enabled {
					flags = " [disabled]"
				}
				deps := "-"
				if len(t.Dependencies) > 0 {
					deps = strings.Join(t.Dependencies, ", ")
				}
				fmt.Printf("  %-20s -> %-20s %-12s depends on: %s%s\n", t.Name, t.TargetEntity, t.Category, deps, flags)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().BoolVar(&tablesJSON, "json", false, "Print the catalog as JSON")
}
