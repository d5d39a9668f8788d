package runtime

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/itchyny/gojq"
)

// builtinJQ implements host.jq(query, value) -> results, err
// Runs a jq expression against a Lua value and returns the array of
// results, or nil plus an error string.
func (rt *Runtime) builtinJQ(L *lua.LState) int {
	src := L.CheckString(1)
	input := luaToGo(L.Get(2))

	query, err := gojq.Parse(src)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	var results []any
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		results = append(results, v)
	}

	L.Push(goToLua(L, results))
	return 1
}
