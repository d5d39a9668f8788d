package runtime

import (
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// builtinUUID implements host.uuid() -> string
// Returns a random UUID v4.
func (rt *Runtime) builtinUUID(L *lua.LState) int {
	L.Push(lua.LString(uuid.NewString()))
	return 1
}
