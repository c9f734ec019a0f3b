package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Todo - a small htmx todo list service",
	Long: `Todo serves a single-table todo list as server-rendered HTML fragments
behind basic authentication.

Configuration comes from the environment (USERNAME, PASSWORD, TODO_STORE, ...).
Running without a subcommand is the same as "todo serve".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	Args: cobra.NoArgs,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
