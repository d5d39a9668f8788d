package luactx

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	lua "github.com/yuin/gopher-lua"

	"github.com/tanuki-sh/luahost/pkg/fam"
)

// luaFileFilter matches Lua files that do not start with a dot.
const luaFileFilter = `^[^.].*\.lua$`

// pkgPathAppend extends package.path with a directory's module patterns.
const pkgPathAppend = `package.path = package.path .. ";%s/?.lua;%s/?/init.lua"`

// Context is a managed Lua interpreter state. It owns the state, carries a
// declarative binding set that is replayed into every fresh state, and can
// restart the interpreter when watched script files change.
type Context struct {
	mu    sync.Mutex
	state *lua.LState
	errfn *lua.LFunction // traceback handler of the current state

	ownsState  bool
	watchDirs  bool
	tracebacks bool
	logger     *slog.Logger

	startScript string
	packageDirs []string
	packages    []string

	strings   map[string]string
	numbers   map[string]float64
	integers  map[string]int64
	booleans  map[string]bool
	functions map[string]lua.LGFunction
	usertypes map[string]usertypeBinding

	monitor *fam.Monitor
	reload  atomic.Bool

	watcherMu sync.Mutex
	watchers  []Watcher
}

type usertypeBinding struct {
	data     any
	typeName string
}

// Option configures a Context.
type Option func(*Context)

// WithWatch enables or disables file watching on package directories.
// Watching is enabled by default.
func WithWatch(watch bool) Option {
	return func(c *Context) { c.watchDirs = watch }
}

// WithTracebacks enables or disables the traceback error handler.
// Tracebacks are enabled by default; the handler occupies stack slot 1 of
// every state the context creates.
func WithTracebacks(enable bool) Option {
	return func(c *Context) { c.tracebacks = enable }
}

// WithLogger sets the logger used for restart and watcher diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Context with a fresh interpreter state.
func New(opts ...Option) (*Context, error) {
	c := &Context{
		ownsState:  true,
		watchDirs:  true,
		tracebacks: true,
		logger:     slog.Default(),
		strings:    make(map[string]string),
		numbers:    make(map[string]float64),
		integers:   make(map[string]int64),
		booleans:   make(map[string]bool),
		functions:  make(map[string]lua.LGFunction),
		usertypes:  make(map[string]usertypeBinding),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.watchDirs {
		m, err := fam.NewMonitor()
		if err != nil {
			return nil, fmt.Errorf("luactx: create file monitor: %w", err)
		}
		if err := m.AddFilter(luaFileFilter); err != nil {
			m.Close()
			return nil, err
		}
		m.AddListener(c)
		c.monitor = m
	}

	L, errfn, err := c.initState()
	if err != nil {
		if c.monitor != nil {
			c.monitor.Close()
		}
		return nil, err
	}
	c.state = L
	c.errfn = errfn
	return c, nil
}

// Wrap creates a non-owning Context around an existing state. It provides
// the convenience API only: no bindings are injected, no files are watched,
// and Close does not close the wrapped state. Watcher callbacks receive
// wrapped contexts during restarts.
func Wrap(L *lua.LState) *Context {
	return &Context{
		state:     L,
		logger:    slog.Default(),
		strings:   make(map[string]string),
		numbers:   make(map[string]float64),
		integers:  make(map[string]int64),
		booleans:  make(map[string]bool),
		functions: make(map[string]lua.LGFunction),
		usertypes: make(map[string]usertypeBinding),
	}
}

// Close finalizes watchers and releases the interpreter state.
// It is a no-op for wrapped contexts.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.monitor != nil {
		c.monitor.Close()
		c.monitor = nil
	}
	if !c.ownsState || c.state == nil {
		return
	}
	wrapped := Wrap(c.state)
	for _, w := range c.watcherSnapshot() {
		if err := w.Finalize(wrapped); err != nil {
			c.logger.Warn("luactx: watcher finalize failed", "error", err)
		}
	}
	c.state.Close()
	c.state = nil
	c.errfn = nil
}

// initState builds a fresh interpreter state: package path entries, default
// packages, binding replay, watcher init and finally the start script. On
// any failure the new state is closed and an error returned.
func (c *Context) initState() (*lua.LState, *lua.LFunction, error) {
	L := lua.NewState()

	var errfn *lua.LFunction
	if c.tracebacks {
		if fn, ok := L.GetField(L.GetGlobal("debug"), "traceback").(*lua.LFunction); ok {
			errfn = fn
			L.Push(fn) // stays at slot 1 for the lifetime of the state
		}
	}

	fail := func(err error) (*lua.LState, *lua.LFunction, error) {
		L.Close()
		return nil, nil, err
	}

	for _, dir := range c.packageDirs {
		if err := doString(L, errfn, fmt.Sprintf(pkgPathAppend, dir, dir), 0); err != nil {
			return fail(err)
		}
	}
	for _, pkg := range c.packages {
		if err := doString(L, errfn, fmt.Sprintf("require(%q)", pkg), 0); err != nil {
			return fail(err)
		}
	}

	c.replayBindings(L)

	wrapped := Wrap(L)
	for _, w := range c.watcherSnapshot() {
		if err := w.Init(wrapped); err != nil {
			return fail(fmt.Errorf("luactx: watcher init: %w", err))
		}
	}

	if c.startScript != "" {
		if err := runScript(L, errfn, c.startScript); err != nil {
			return fail(err)
		}
	}

	return L, errfn, nil
}

// runScript executes a start script: a readable file is run directly,
// anything else is treated as a module name for require.
func runScript(L *lua.LState, errfn *lua.LFunction, script string) error {
	if fileReadable(script) {
		return doFile(L, errfn, script)
	}
	return doString(L, errfn, fmt.Sprintf("require(%q)", script), 0)
}

func fileReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// SetStartScript sets the script executed now and after every restart.
// Call this after all other init-relevant routines (AddPackageDir,
// bindings, watchers) so the script can rely on them.
func (c *Context) SetStartScript(script string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startScript = script
	if script == "" {
		return nil
	}
	return runScript(c.state, c.errfn, script)
}

// Restart creates a fresh state, initializes it, and if this went well swaps
// it in for the current state. On failure the current state keeps running.
func (c *Context) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	L, errfn, err := c.initState()
	if err != nil {
		c.logger.Error("luactx: restart failed, keeping old state", "error", err)
		return err
	}

	old := c.state
	wrappedOld := Wrap(old)
	for _, w := range c.watcherSnapshot() {
		if ferr := w.Finalize(wrappedOld); ferr != nil {
			c.logger.Warn("luactx: watcher finalize failed", "error", ferr)
		}
	}

	c.state = L
	c.errfn = errfn
	old.Close()

	wrappedNew := Wrap(L)
	for _, w := range c.watcherSnapshot() {
		if rerr := w.Restarted(wrappedNew); rerr != nil {
			c.logger.Warn("luactx: watcher restart notification failed", "error", rerr)
		}
	}
	return nil
}

// AddPackageDir appends a directory to the Lua module search path, now and
// on every restart. In watch mode the directory is monitored for changes.
func (c *Context) AddPackageDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := doString(c.state, c.errfn, fmt.Sprintf(pkgPathAppend, dir, dir), 0); err != nil {
		return err
	}
	c.packageDirs = append(c.packageDirs, dir)
	if c.monitor != nil {
		return c.monitor.WatchDir(dir)
	}
	return nil
}

// AddPackage requires a module now and on every restart. Adding the same
// package twice is a no-op.
func (c *Context) AddPackage(pkg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.packages, pkg) {
		return nil
	}
	if err := doString(c.state, c.errfn, fmt.Sprintf("require(%q)", pkg), 0); err != nil {
		return err
	}
	c.packages = append(c.packages, pkg)
	return nil
}

// AddWatchDir monitors an extra directory for changes.
func (c *Context) AddWatchDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monitor == nil {
		return nil
	}
	return c.monitor.WatchDir(dir)
}

// AddWatchFile monitors an extra file for changes.
func (c *Context) AddWatchFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monitor == nil {
		return nil
	}
	return c.monitor.WatchFile(path)
}

// State returns the raw interpreter state. Hold the context lock while
// using it.
func (c *Context) State() *lua.LState {
	return c.state
}

// Lock locks the interpreter state.
func (c *Context) Lock() { c.mu.Lock() }

// TryLock tries to lock the interpreter state and reports whether it
// succeeded.
func (c *Context) TryLock() bool { return c.mu.TryLock() }

// Unlock unlocks the interpreter state.
func (c *Context) Unlock() { c.mu.Unlock() }

// DoString compiles and executes a chunk of Lua source. Results stay on the
// stack.
func (c *Context) DoString(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return doString(c.state, c.errfn, source, lua.MultRet)
}

// DoStringf formats a chunk of Lua source and executes it.
func (c *Context) DoStringf(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return doString(c.state, c.errfn, fmt.Sprintf(format, args...), lua.MultRet)
}

// DoFile loads and executes a script file. Results stay on the stack.
func (c *Context) DoFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return doFile(c.state, c.errfn, path)
}

// LoadString compiles a chunk of Lua source and leaves it as a function on
// top of the stack.
func (c *Context) LoadString(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn, err := c.state.LoadString(source)
	if err != nil {
		return wrapLuaError("load_string", err)
	}
	c.state.Push(fn)
	return nil
}

// PCall calls the function on top of the stack in protected mode. When
// errfunc is nil and tracebacks are enabled, the context's traceback
// handler is used.
func (c *Context) PCall(nargs, nresults int, errfunc *lua.LFunction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errfunc == nil {
		errfunc = c.errfn
	}
	if err := c.state.PCall(nargs, nresults, errfunc); err != nil {
		return wrapLuaError("pcall", err)
	}
	return nil
}

// doString compiles and runs a chunk on a specific state.
func doString(L *lua.LState, errfn *lua.LFunction, source string, nret int) error {
	fn, err := L.LoadString(source)
	if err != nil {
		return wrapLuaError("do_string", err)
	}
	L.Push(fn)
	if err := L.PCall(0, nret, errfn); err != nil {
		return wrapLuaError("do_string", err)
	}
	return nil
}

// doFile loads and runs a script file on a specific state.
func doFile(L *lua.LState, errfn *lua.LFunction, path string) error {
	fn, err := L.LoadFile(path)
	if err != nil {
		return wrapLuaError("do_file", err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, errfn); err != nil {
		return wrapLuaError("do_file", err)
	}
	return nil
}

// AddWatcher registers a context watcher.
func (c *Context) AddWatcher(w Watcher) {
	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()
	c.watchers = append(c.watchers, w)
}

// RemoveWatcher removes a previously registered context watcher.
func (c *Context) RemoveWatcher(w Watcher) {
	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()
	c.watchers = slices.DeleteFunc(c.watchers, func(x Watcher) bool { return x == w })
}

func (c *Context) watcherSnapshot() []Watcher {
	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()
	return slices.Clone(c.watchers)
}

// FamEvent implements fam.Listener. Any event on a watched script file
// schedules a restart; ProcessFileEvents performs it after the pump.
func (c *Context) FamEvent(name string, op fsnotify.Op) {
	c.reload.Store(true)
}

// ProcessFileEvents pumps the file monitor, waiting up to timeout for the
// first event. Events delivered during one pump collapse into a single
// restart. Restart errors are logged, not returned; the old state keeps
// running.
func (c *Context) ProcessFileEvents(timeout time.Duration) {
	if c.monitor == nil {
		return
	}
	if err := c.monitor.Process(timeout); err != nil {
		c.logger.Warn("luactx: file monitor", "error", err)
	}
	if c.reload.CompareAndSwap(true, false) {
		// Error already logged by Restart.
		_ = c.Restart()
	}
}
