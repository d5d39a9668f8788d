package runtime

import (
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// builtinJSONEncode implements host.json_encode(value) -> string
func (rt *Runtime) builtinJSONEncode(L *lua.LState) int {
	value := luaToGo(L.Get(1))
	data, err := json.Marshal(value)
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(data))
	return 1
}

// builtinJSONDecode implements host.json_decode(str) -> value
func (rt *Runtime) builtinJSONDecode(L *lua.LState) int {
	str := L.CheckString(1)
	if str == "" {
		L.Push(lua.LNil)
		return 1
	}

	var value any
	if err := json.Unmarshal([]byte(str), &value); err != nil {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(goToLua(L, value))
	return 1
}

// luaToGo converts a Lua value to a plain Go value. Functions, userdata and
// threads convert to nil.
func luaToGo(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return nil
	}
}

// tableToGo converts a Lua table to a Go slice or map. A table whose keys
// are the consecutive integers from 1 becomes a slice, anything else a map
// with stringified keys.
func tableToGo(t *lua.LTable) any {
	isArray := true
	count := 0
	maxIdx := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		n, ok := k.(lua.LNumber)
		if !ok || float64(n) != float64(int(n)) {
			isArray = false
			return
		}
		if int(n) > maxIdx {
			maxIdx = int(n)
		}
	})

	if isArray && count > 0 && maxIdx == count {
		arr := make([]any, maxIdx)
		for i := 1; i <= maxIdx; i++ {
			arr[i-1] = luaToGo(t.RawGetInt(i))
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch k := k.(type) {
		case lua.LString:
			key = string(k)
		case lua.LNumber:
			if float64(k) == float64(int64(k)) {
				key = fmt.Sprintf("%d", int64(k))
			} else {
				key = fmt.Sprintf("%g", float64(k))
			}
		default:
			return
		}
		m[key] = luaToGo(v)
	})
	return m
}

// goToLua converts a plain Go value to a Lua value. Unknown types convert
// to nil.
func goToLua(L *lua.LState, value any) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case float64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case int8:
		return lua.LNumber(v)
	case int16:
		return lua.LNumber(v)
	case int32:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint:
		return lua.LNumber(v)
	case uint8:
		return lua.LNumber(v)
	case uint16:
		return lua.LNumber(v)
	case uint32:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []byte:
		return lua.LString(v)
	case []any:
		t := L.CreateTable(len(v), 0)
		for i, item := range v {
			t.RawSetInt(i+1, goToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(v))
		for k, item := range v {
			t.RawSetString(k, goToLua(L, item))
		}
		return t
	case map[any]any:
		t := L.CreateTable(0, len(v))
		for k, item := range v {
			t.RawSet(goToLua(L, k), goToLua(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}
