// Package main is the entry point for the luahost CLI.
//
// Usage:
//
//	luahost [flags] <command> [args]
//
// Commands:
//
//	run      - Run a Lua script with host builtins and hot reload
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/tanuki-sh/luahost/cmd/luahost/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
