package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "luahost",
	Short: "Managed Lua script host",
	Long: `luahost - run Lua scripts against a managed interpreter.

The host owns the interpreter state, injects configured bindings as global
variables, installs host builtins (HTTP, JSON, jq, key-value store, logging)
and restarts the state whenever a watched script changes. Bindings are
replayed into every fresh state, so scripts see the same environment across
reloads.

Examples:
  # Run a script once, without file watching
  luahost run --watch=false script.lua

  # Run with a library directory and hot reload
  luahost run --libs ./libs script.lua

  # Persist host.kvs_* data across runs
  luahost run --kv-dir ./data script.lua`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
