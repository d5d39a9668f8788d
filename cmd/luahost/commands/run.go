package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanuki-sh/luahost/pkg/kv"
	"github.com/tanuki-sh/luahost/pkg/luactx"
	"github.com/tanuki-sh/luahost/pkg/luactx/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run [script.lua]",
	Short: "Run a Lua script",
	Long: `Run a Lua script with host builtins.

With --watch (the default) the process keeps running and restarts the
interpreter state whenever the script or a watched directory changes.
Bindings and builtins are replayed into the fresh state.

Examples:
  luahost run script.lua
  luahost run --libs ./libs --kv-dir ./data script.lua
  luahost run --config run.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

var (
	runLibsDir    string
	runConfigPath string
	runKVDir      string
	runWatch      bool
)

func init() {
	runCmd.Flags().StringVar(&runLibsDir, "libs", "", "libs directory path")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "YAML config file path")
	runCmd.Flags().StringVar(&runKVDir, "kv-dir", "", "persistent key-value store directory (default: in-memory)")
	runCmd.Flags().BoolVar(&runWatch, "watch", true, "watch the script and restart on changes")

	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg := &Config{}
	if runConfigPath != "" {
		var err error
		cfg, err = LoadConfig(runConfigPath)
		if err != nil {
			return err
		}
	}

	// Flags and the positional argument override the config file.
	script := cfg.Script
	if len(args) > 0 {
		script = args[0]
	}
	if script == "" {
		return errors.New("no script given, pass one as argument or set script: in the config")
	}
	libsDir := cfg.LibsDir
	if runLibsDir != "" {
		libsDir = runLibsDir
	}
	kvDir := cfg.KVDir
	if runKVDir != "" {
		kvDir = runKVDir
	}

	store, err := openStore(kvDir)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := luactx.New(luactx.WithWatch(runWatch))
	if err != nil {
		return err
	}
	defer c.Close()

	for _, dir := range cfg.PackageDirs {
		if err := c.AddPackageDir(dir); err != nil {
			return fmt.Errorf("add package dir %s: %w", dir, err)
		}
	}
	for _, pkg := range cfg.Packages {
		if err := c.AddPackage(pkg); err != nil {
			return fmt.Errorf("add package %s: %w", pkg, err)
		}
	}
	if err := applyBindings(c, &cfg.Bindings); err != nil {
		return err
	}

	rt := runtime.New(
		runtime.WithLibsDir(libsDir),
		runtime.WithStore(store),
	)
	if err := rt.Attach(c); err != nil {
		return fmt.Errorf("install builtins: %w", err)
	}

	if runWatch {
		if err := c.AddWatchFile(script); err != nil {
			return fmt.Errorf("watch %s: %w", script, err)
		}
		for _, dir := range cfg.WatchDirs {
			if err := c.AddWatchDir(dir); err != nil {
				return fmt.Errorf("watch dir %s: %w", dir, err)
			}
		}
	}

	if err := c.SetStartScript(script); err != nil {
		return fmt.Errorf("run %s: %w", script, err)
	}
	if !runWatch {
		return nil
	}

	// Watch mode: pump file events until interrupted.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.Info("watching for changes", "script", script)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			c.ProcessFileEvents(500 * time.Millisecond)
		}
	}
}

// openStore opens the badger store at dir, or an in-memory store when dir
// is empty.
func openStore(dir string) (kv.Store, error) {
	if dir == "" {
		return kv.NewMemory(), nil
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return store, nil
}

// applyBindings registers every configured binding on the context.
func applyBindings(c *luactx.Context, b *Bindings) error {
	for name, v := range b.Strings {
		if err := c.SetString(name, v); err != nil {
			return err
		}
	}
	for name, v := range b.Numbers {
		if err := c.SetNumber(name, v); err != nil {
			return err
		}
	}
	for name, v := range b.Integers {
		if err := c.SetInteger(name, v); err != nil {
			return err
		}
	}
	for name, v := range b.Booleans {
		if err := c.SetBoolean(name, v); err != nil {
			return err
		}
	}
	return nil
}
