// Package luactx provides a managed Lua context for embedding scripts in a
// host application.
//
// A Context owns a gopher-lua state and layers three things on top of it:
// a typed convenience API over the stack-based state, a declarative set of
// host bindings that survives interpreter restarts, and hot reload of
// scripts when watched files change on disk.
//
// # Basic Usage
//
//	ctx, err := luactx.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	// Bind host values as globals
//	ctx.SetString("app_name", "demo")
//	ctx.SetNumber("threshold", 0.75)
//
//	// Execute a script
//	if err := ctx.DoString(`print(app_name, threshold)`); err != nil {
//	    log.Fatal(err)
//	}
//
// # Bindings and Restarts
//
// Values registered through SetString, SetNumber, SetInteger, SetBoolean,
// SetFunction and SetUserType are remembered by the context. Restart tears
// down the interpreter state, builds a fresh one and replays every binding
// into it, so scripts always observe the same globals no matter how many
// reloads happened. A bound name belongs to exactly one binding kind;
// rebinding it as a different kind is an error.
//
// # Hot Reload
//
// With watching enabled (the default) the context monitors every package
// directory for changes to Lua files. The host pumps events explicitly:
//
//	ctx.SetStartScript("scripts/main.lua")
//	for {
//	    ctx.ProcessFileEvents(500 * time.Millisecond)
//	}
//
// A change triggers Restart. If building the fresh state fails, the old
// state keeps running and the error is logged.
//
// # Watchers
//
// Components that install their own functions into the interpreter register
// a Watcher. Init runs against every fresh state before the start script,
// Finalize runs against the outgoing state, Restarted runs after the swap.
//
// # Locking
//
// The context serializes access to the interpreter internally. Lock, TryLock
// and Unlock are exposed for hosts that need to use the raw state via
// State() from multiple goroutines.
package luactx
