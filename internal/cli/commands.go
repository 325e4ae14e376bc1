// Package cli implements the recordctl command tree.
package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

var (
	Version  = "0.1.0"
	logLevel string
)

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "recordctl",
	Short: "Inspect and edit the items table through the record layer",
	Long: `recordctl reads and writes the items table with the same record model the
API uses. Connection settings come from DB_* environment variables or a .env file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the items table when it is missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every row of the items table as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errInvalidID(args[0])
		}
		return runGet(cmd, id)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Insert an item, or update it when --id names an existing row",
	Long: `Without --id the item is inserted. With --id the row is looked up first;
an existing row is updated in place, a missing one is inserted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		name, _ := cmd.Flags().GetString("name")
		price, _ := cmd.Flags().GetFloat64("price")
		return runSave(cmd, id, name, price)
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Describe the live columns of the items table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runColumns(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug prints every statement)")

	saveCmd.Flags().Int64("id", 0, "id of the row to update")
	saveCmd.Flags().String("name", "", "item name")
	saveCmd.Flags().Float64("price", 0, "item price")
	_ = saveCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(columnsCmd)
}
