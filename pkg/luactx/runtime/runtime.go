// Package runtime provides a set of host builtins for luactx contexts.
// It installs a `host` table with HTTP, JSON, jq, KVS, logging, environment,
// time and UUID functions, and preloads Lua library modules from a directory.
//
// Runtime implements luactx.Watcher, so once attached it reinstalls itself
// into every fresh state a context creates across restarts.
package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/tanuki-sh/luahost/pkg/kv"
	"github.com/tanuki-sh/luahost/pkg/luactx"
)

// HostTable is the global name under which the builtins are installed.
const HostTable = "host"

// Runtime holds the host-side services exposed to Lua scripts.
type Runtime struct {
	libsDir string
	store   kv.Store
	logger  *slog.Logger
	client  *http.Client
}

// Option is a functional option for configuring Runtime.
type Option func(*Runtime)

// WithLibsDir sets the directory containing Lua library modules. Every
// .lua file below it is preloaded as a require-able module.
func WithLibsDir(dir string) Option {
	return func(rt *Runtime) {
		rt.libsDir = dir
	}
}

// WithStore sets the key-value store backing the kvs builtins. Without a
// store the kvs builtins return nil.
func WithStore(store kv.Store) Option {
	return func(rt *Runtime) {
		rt.store = store
	}
}

// WithLogger sets the logger used by the log builtin.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithHTTPClient sets the client used by the http builtin.
func WithHTTPClient(client *http.Client) Option {
	return func(rt *Runtime) {
		rt.client = client
	}
}

// New creates a Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: slog.Default(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Attach registers the runtime as a watcher on the context and installs the
// builtins into its current state.
func (rt *Runtime) Attach(c *luactx.Context) error {
	c.AddWatcher(rt)
	return rt.Init(c)
}

// Init installs the host table and preloads library modules. It runs
// against every fresh state the context creates.
func (rt *Runtime) Init(c *luactx.Context) error {
	L := c.State()
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"log":         rt.builtinLog,
		"http":        rt.builtinHTTP,
		"json_encode": rt.builtinJSONEncode,
		"json_decode": rt.builtinJSONDecode,
		"jq":          rt.builtinJQ,
		"kvs_get":     rt.builtinKVSGet,
		"kvs_set":     rt.builtinKVSSet,
		"kvs_del":     rt.builtinKVSDel,
		"kvs_keys":    rt.builtinKVSKeys,
		"env":         rt.builtinEnv,
		"time":        rt.builtinTime,
		"parse_time":  rt.builtinParseTime,
		"uuid":        rt.builtinUUID,
	})
	L.SetGlobal(HostTable, mod)
	return rt.preloadInto(L)
}

// Finalize is a no-op; the runtime holds no per-state resources.
func (rt *Runtime) Finalize(*luactx.Context) error {
	return nil
}

// Restarted logs the restart.
func (rt *Runtime) Restarted(*luactx.Context) error {
	rt.logger.Info("runtime: state restarted, builtins reinstalled")
	return nil
}

// PreloadModules registers the library modules with the context's current
// state. Attach does this already; call it only for contexts the runtime is
// not attached to.
func (rt *Runtime) PreloadModules(c *luactx.Context) error {
	return rt.preloadInto(c.State())
}

// preloadInto compiles every .lua file under the libs directory and
// registers it with package.preload. Module names are relative paths with
// the extension stripped and slashes replaced by dots; an init.lua collapses
// to its directory name. Compile errors are collected so one broken module
// does not hide the rest.
func (rt *Runtime) preloadInto(L *lua.LState) error {
	if rt.libsDir == "" {
		return nil
	}
	var errs []error
	walkErr := filepath.WalkDir(rt.libsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rt.libsDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".lua" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		name := moduleName(rt.libsDir, path)
		source, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			return nil
		}
		fn, err := L.LoadString(string(source))
		if err != nil {
			errs = append(errs, fmt.Errorf("compile %s: %w", path, err))
			return nil
		}
		L.PreloadModule(name, func(L *lua.LState) int {
			L.Push(fn)
			L.Call(0, 1)
			return 1
		})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("runtime: walk libs dir %s: %w", rt.libsDir, walkErr))
	}
	return errors.Join(errs...)
}

// moduleName derives the require name for a library file.
func moduleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".lua")
	rel = strings.TrimSuffix(rel, string(filepath.Separator)+"init")
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}
