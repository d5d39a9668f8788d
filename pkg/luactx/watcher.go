package luactx

// Watcher observes the lifecycle of the interpreter states a Context
// manages. All callbacks receive a non-owning wrapped Context around the
// state in question; the wrapper must not be retained beyond the callback.
type Watcher interface {
	// Init runs against every fresh state, after bindings are replayed and
	// before the start script. Returning an error aborts the state: during
	// New the constructor fails, during Restart the old state keeps running.
	Init(c *Context) error

	// Finalize runs against a state that is about to be closed, either
	// because the context is closing or because a restart replaces it.
	// Errors are logged and otherwise ignored.
	Finalize(c *Context) error

	// Restarted runs against the new state once a restart has completed.
	// Errors are logged and otherwise ignored.
	Restarted(c *Context) error
}
