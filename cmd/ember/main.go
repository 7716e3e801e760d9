package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberbase/ember-go/cmd/ember/commands"
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Ember - realtime entity cache client",
	Long: `Ember - client-side entity cache with bounded memory.

Ember keeps a local cache of server entities, evicts under configurable
memory pressure, and ships field-level mutation diffs back to the server.

Available commands:
  diag  - Show cache collector diagnostics and resolved configuration
  gc    - Run one manual collection pass
  watch - Connect to a server and stream entity refresh events

Examples:
  ember diag                    # Show collector state and bounds
  ember gc                      # Force a collection pass
  ember watch --id task-1       # Subscribe and stream refreshes`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Resolve configuration and bring the logger up before any command runs
		return commands.Setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to an ember.toml (defaults to ./ember.toml)")

	rootCmd.AddCommand(commands.DiagCmd)
	rootCmd.AddCommand(commands.GCCmd)
	rootCmd.AddCommand(commands.WatchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
