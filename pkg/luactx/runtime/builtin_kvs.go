package runtime

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tanuki-sh/luahost/pkg/kv"
)

// builtinKVSGet implements host.kvs_get(key) -> value
// Returns nil for missing keys, undecodable values and when no store is
// configured.
func (rt *Runtime) builtinKVSGet(L *lua.LState) int {
	key := L.CheckString(1)
	if key == "" || rt.store == nil {
		L.Push(lua.LNil)
		return 1
	}

	data, err := rt.store.Get(context.Background(), key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			rt.logger.Error("kvs_get failed", "key", key, "error", err)
		}
		L.Push(lua.LNil)
		return 1
	}

	var value any
	if err := msgpack.Unmarshal(data, &value); err != nil {
		rt.logger.Error("kvs_get decode failed", "key", key, "error", err)
		L.Push(lua.LNil)
		return 1
	}

	L.Push(goToLua(L, value))
	return 1
}

// builtinKVSSet implements host.kvs_set(key, value)
func (rt *Runtime) builtinKVSSet(L *lua.LState) int {
	key := L.CheckString(1)
	if key == "" || rt.store == nil {
		return 0
	}

	data, err := msgpack.Marshal(luaToGo(L.Get(2)))
	if err != nil {
		rt.logger.Error("kvs_set encode failed", "key", key, "error", err)
		return 0
	}
	if err := rt.store.Set(context.Background(), key, data); err != nil {
		rt.logger.Error("kvs_set failed", "key", key, "error", err)
	}
	return 0
}

// builtinKVSDel implements host.kvs_del(key)
func (rt *Runtime) builtinKVSDel(L *lua.LState) int {
	key := L.CheckString(1)
	if key == "" || rt.store == nil {
		return 0
	}
	if err := rt.store.Delete(context.Background(), key); err != nil {
		rt.logger.Error("kvs_del failed", "key", key, "error", err)
	}
	return 0
}

// builtinKVSKeys implements host.kvs_keys(prefix) -> array
// Returns the keys starting with prefix, in lexicographic order.
func (rt *Runtime) builtinKVSKeys(L *lua.LState) int {
	prefix := L.OptString(1, "")
	if rt.store == nil {
		L.Push(lua.LNil)
		return 1
	}

	t := L.NewTable()
	n := 0
	for entry, err := range rt.store.Scan(context.Background(), prefix) {
		if err != nil {
			rt.logger.Error("kvs_keys failed", "prefix", prefix, "error", err)
			L.Push(lua.LNil)
			return 1
		}
		n++
		t.RawSetInt(n, lua.LString(entry.Key))
	}
	L.Push(t)
	return 1
}
