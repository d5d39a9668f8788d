package runtime

import (
	"os"

	lua "github.com/yuin/gopher-lua"
)

// builtinEnv implements host.env(key) -> value
func (rt *Runtime) builtinEnv(L *lua.LState) int {
	key := L.CheckString(1)
	if key == "" {
		L.Push(lua.LNil)
		return 1
	}

	value := os.Getenv(key)
	if value == "" {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(lua.LString(value))
	return 1
}
