package luactx

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// =============================================================================
// Push Values
// =============================================================================

// PushNil pushes nil on top of the stack.
func (c *Context) PushNil() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LNil)
}

// PushBoolean pushes a boolean on top of the stack.
func (c *Context) PushBoolean(value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LBool(value))
}

// PushNumber pushes a number on top of the stack.
func (c *Context) PushNumber(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LNumber(value))
}

// PushInteger pushes an integer on top of the stack.
func (c *Context) PushInteger(value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LNumber(value))
}

// PushString pushes a string on top of the stack.
func (c *Context) PushString(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LString(value))
}

// PushFString pushes a formatted string on top of the stack.
func (c *Context) PushFString(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(lua.LString(fmt.Sprintf(format, args...)))
}

// PushValue pushes a copy of the element at the given index on top of the
// stack.
func (c *Context) PushValue(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(c.state.Get(idx))
}

// PushFunction pushes a Go function on top of the stack.
func (c *Context) PushFunction(fn lua.LGFunction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(c.state.NewFunction(fn))
}

// PushUserType pushes userdata wrapping data with the named type metatable
// on top of the stack.
func (c *Context) PushUserType(data any, typeName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Push(newUserType(c.state, data, typeName))
}

// =============================================================================
// Stack Manipulation
// =============================================================================

// Pop removes n values from the stack. With tracebacks enabled the handler
// at slot 1 cannot be popped.
func (c *Context) Pop(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errfn != nil && n >= c.state.GetTop() {
		return fmt.Errorf("%w: cannot pop traceback handler", ErrStack)
	}
	c.state.Pop(n)
	return nil
}

// Remove removes the value at the given index. With tracebacks enabled the
// handler at slot 1 cannot be removed.
func (c *Context) Remove(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errfn != nil && (idx == 1 || idx == -c.state.GetTop()) {
		return fmt.Errorf("%w: cannot remove traceback handler", ErrStack)
	}
	c.state.Remove(idx)
	return nil
}

// StackSize returns the number of elements on the stack.
func (c *Context) StackSize() int {
	return c.state.GetTop()
}

// =============================================================================
// Tables
// =============================================================================

// CreateTable creates a table with the given pre-allocated sizes on top of
// the stack.
func (c *Context) CreateTable(narr, nrec int) {
	c.state.Push(c.state.CreateTable(narr, nrec))
}

// SetTable sets t[k] = v, where t is the table at the given index, v is the
// value on top of the stack and k the element just below it. Both are
// popped.
func (c *Context) SetTable(tIdx int) {
	v := c.state.Get(-1)
	k := c.state.Get(-2)
	t := c.state.Get(tIdx)
	c.state.Pop(2)
	c.state.SetTable(t, k, v)
}

// SetField sets t[key] to the value on top of the stack, where t is the
// table at the given index. The value is popped.
func (c *Context) SetField(key string, tIdx int) {
	v := c.state.Get(-1)
	t := c.state.Get(tIdx)
	c.state.Pop(1)
	c.state.SetField(t, key, v)
}

// SetGlobal assigns the value on top of the stack to the named global
// variable, without touching the binding set. The value is popped.
func (c *Context) SetGlobal(name string) {
	v := c.state.Get(-1)
	c.state.Pop(1)
	c.state.SetGlobal(name, v)
}

// GetTable replaces the key on top of the stack with t[key], where t is the
// table at the given index.
func (c *Context) GetTable(idx int) {
	k := c.state.Get(-1)
	t := c.state.Get(idx)
	c.state.Pop(1)
	c.state.Push(c.state.GetTable(t, k))
}

// GetField pushes t[key] onto the stack, where t is the table at the given
// index.
func (c *Context) GetField(idx int, key string) {
	c.state.Push(c.state.GetField(c.state.Get(idx), key))
}

// GetGlobal pushes the named global variable onto the stack.
func (c *Context) GetGlobal(name string) {
	c.state.Push(c.state.GetGlobal(name))
}

// RawSet is like SetTable but bypasses metamethods. The value at the given
// index must be a table.
func (c *Context) RawSet(idx int) error {
	t, ok := c.state.Get(idx).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: raw_set target is not a table", ErrStack)
	}
	v := c.state.Get(-1)
	k := c.state.Get(-2)
	c.state.Pop(2)
	c.state.RawSet(t, k, v)
	return nil
}

// RawSetI sets t[n] to the value on top of the stack, bypassing
// metamethods.
func (c *Context) RawSetI(idx, n int) error {
	t, ok := c.state.Get(idx).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: raw_seti target is not a table", ErrStack)
	}
	v := c.state.Get(-1)
	c.state.Pop(1)
	c.state.RawSetInt(t, n, v)
	return nil
}

// RawGet is like GetTable but bypasses metamethods.
func (c *Context) RawGet(idx int) error {
	t, ok := c.state.Get(idx).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: raw_get target is not a table", ErrStack)
	}
	k := c.state.Get(-1)
	c.state.Pop(1)
	c.state.Push(c.state.RawGet(t, k))
	return nil
}

// RawGetI pushes t[n] onto the stack, bypassing metamethods.
func (c *Context) RawGetI(idx, n int) error {
	t, ok := c.state.Get(idx).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: raw_geti target is not a table", ErrStack)
	}
	c.state.Push(c.state.RawGetInt(t, n))
	return nil
}

// ObjLen returns the length of the table or string at the given index.
func (c *Context) ObjLen(idx int) int {
	return c.state.ObjLen(c.state.Get(idx))
}

// =============================================================================
// Read Values
// =============================================================================

// ToNumber returns the stack value at the given index as a number.
func (c *Context) ToNumber(idx int) float64 {
	return float64(lua.LVAsNumber(c.state.Get(idx)))
}

// ToInteger returns the stack value at the given index as an integer.
func (c *Context) ToInteger(idx int) int64 {
	return int64(lua.LVAsNumber(c.state.Get(idx)))
}

// ToBoolean returns the stack value at the given index as a boolean.
func (c *Context) ToBoolean(idx int) bool {
	return lua.LVAsBool(c.state.Get(idx))
}

// ToString returns the stack value at the given index as a string.
func (c *Context) ToString(idx int) string {
	return lua.LVAsString(c.state.Get(idx))
}

// ToUserData returns the Go value wrapped by the userdata at the given
// index, or nil if the value is not userdata.
func (c *Context) ToUserData(idx int) any {
	if ud, ok := c.state.Get(idx).(*lua.LUserData); ok {
		return ud.Value
	}
	return nil
}

// =============================================================================
// Type Checks
// =============================================================================

// IsNil reports whether the stack value at the given index is nil.
func (c *Context) IsNil(idx int) bool {
	return c.state.Get(idx) == lua.LNil
}

// IsBoolean reports whether the stack value at the given index is a boolean.
func (c *Context) IsBoolean(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTBool
}

// IsNumber reports whether the stack value at the given index is a number.
func (c *Context) IsNumber(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTNumber
}

// IsString reports whether the stack value at the given index is a string.
func (c *Context) IsString(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTString
}

// IsTable reports whether the stack value at the given index is a table.
func (c *Context) IsTable(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTTable
}

// IsFunction reports whether the stack value at the given index is a
// function.
func (c *Context) IsFunction(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTFunction
}

// IsUserData reports whether the stack value at the given index is
// userdata.
func (c *Context) IsUserData(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTUserData
}

// IsThread reports whether the stack value at the given index is a thread.
func (c *Context) IsThread(idx int) bool {
	return c.state.Get(idx).Type() == lua.LTThread
}
