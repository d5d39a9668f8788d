package luactx

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Binding kinds, used for uniqueness checks and error messages.
const (
	kindString   = "string"
	kindNumber   = "number"
	kindInteger  = "integer"
	kindBoolean  = "boolean"
	kindFunction = "function"
	kindUserType = "usertype"
)

// assertUniqueName checks that name is not already bound with a different
// kind. Rebinding with the same kind overwrites.
func (c *Context) assertUniqueName(name, kind string) error {
	taken := func(k string, ok bool) error {
		if !ok || k == kind {
			return nil
		}
		return fmt.Errorf("%w: %q is a %s binding", ErrNameTaken, name, k)
	}
	_, ok := c.strings[name]
	if err := taken(kindString, ok); err != nil {
		return err
	}
	_, ok = c.numbers[name]
	if err := taken(kindNumber, ok); err != nil {
		return err
	}
	_, ok = c.integers[name]
	if err := taken(kindInteger, ok); err != nil {
		return err
	}
	_, ok = c.booleans[name]
	if err := taken(kindBoolean, ok); err != nil {
		return err
	}
	_, ok = c.functions[name]
	if err := taken(kindFunction, ok); err != nil {
		return err
	}
	_, ok = c.usertypes[name]
	return taken(kindUserType, ok)
}

// SetString binds a string to a global variable, now and on every restart.
func (c *Context) SetString(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindString); err != nil {
		return err
	}
	c.strings[name] = value
	c.state.SetGlobal(name, lua.LString(value))
	return nil
}

// SetNumber binds a number to a global variable, now and on every restart.
func (c *Context) SetNumber(name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindNumber); err != nil {
		return err
	}
	c.numbers[name] = value
	c.state.SetGlobal(name, lua.LNumber(value))
	return nil
}

// SetInteger binds an integer to a global variable, now and on every restart.
func (c *Context) SetInteger(name string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindInteger); err != nil {
		return err
	}
	c.integers[name] = value
	c.state.SetGlobal(name, lua.LNumber(value))
	return nil
}

// SetBoolean binds a boolean to a global variable, now and on every restart.
func (c *Context) SetBoolean(name string, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindBoolean); err != nil {
		return err
	}
	c.booleans[name] = value
	c.state.SetGlobal(name, lua.LBool(value))
	return nil
}

// SetFunction binds a Go function to a global variable, now and on every
// restart.
func (c *Context) SetFunction(name string, fn lua.LGFunction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindFunction); err != nil {
		return err
	}
	c.functions[name] = fn
	c.state.SetGlobal(name, c.state.NewFunction(fn))
	return nil
}

// SetUserType binds an opaque Go value to a global variable as userdata
// carrying the named type metatable, now and on every restart.
func (c *Context) SetUserType(name string, data any, typeName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertUniqueName(name, kindUserType); err != nil {
		return err
	}
	c.usertypes[name] = usertypeBinding{data: data, typeName: typeName}
	c.state.SetGlobal(name, newUserType(c.state, data, typeName))
	return nil
}

// RemoveGlobal assigns nil to the variable and forgets any binding for it.
func (c *Context) RemoveGlobal(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.strings, name)
	delete(c.numbers, name)
	delete(c.integers, name)
	delete(c.booleans, name)
	delete(c.functions, name)
	delete(c.usertypes, name)
	c.state.SetGlobal(name, lua.LNil)
}

// replayBindings injects every registered binding into a fresh state.
func (c *Context) replayBindings(L *lua.LState) {
	for name, v := range c.strings {
		L.SetGlobal(name, lua.LString(v))
	}
	for name, v := range c.numbers {
		L.SetGlobal(name, lua.LNumber(v))
	}
	for name, v := range c.integers {
		L.SetGlobal(name, lua.LNumber(v))
	}
	for name, v := range c.booleans {
		L.SetGlobal(name, lua.LBool(v))
	}
	for name, fn := range c.functions {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	for name, ut := range c.usertypes {
		L.SetGlobal(name, newUserType(L, ut.data, ut.typeName))
	}
}

// newUserType wraps data in userdata with the type's metatable, creating
// the metatable on first use in this state.
func newUserType(L *lua.LState, data any, typeName string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = data
	mt := L.GetTypeMetatable(typeName)
	if mt == lua.LNil {
		mt = L.NewTypeMetatable(typeName)
	}
	L.SetMetatable(ud, mt)
	return ud
}
