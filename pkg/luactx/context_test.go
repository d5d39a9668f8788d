package luactx_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/tanuki-sh/luahost/pkg/luactx"
)

func newContext(t *testing.T, opts ...luactx.Option) *luactx.Context {
	t.Helper()
	opts = append([]luactx.Option{luactx.WithWatch(false)}, opts...)
	c, err := luactx.New(opts...)
	if err != nil {
		t.Fatalf("luactx.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDoString(t *testing.T) {
	c := newContext(t)

	if err := c.DoString(`x = 21 * 2`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	v := c.State().GetGlobal("x")
	if n, ok := v.(lua.LNumber); !ok || n != 42 {
		t.Errorf("x = %v, want 42", v)
	}
}

func TestDoStringSyntaxError(t *testing.T) {
	c := newContext(t)

	err := c.DoString(`function(`)
	if !errors.Is(err, luactx.ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestDoStringRuntimeError(t *testing.T) {
	c := newContext(t)

	err := c.DoString(`error("boom")`)
	if !errors.Is(err, luactx.ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should carry the script message: %v", err)
	}
}

func TestTracebackInError(t *testing.T) {
	c := newContext(t)

	err := c.DoString(`
		local function inner() error("deep") end
		local function outer() inner() end
		outer()
	`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "traceback") {
		t.Errorf("error should carry a traceback: %v", err)
	}
}

func TestDoStringf(t *testing.T) {
	c := newContext(t)

	if err := c.DoStringf(`y = %d + %d`, 40, 2); err != nil {
		t.Fatalf("DoStringf: %v", err)
	}
	if n := c.State().GetGlobal("y"); n != lua.LNumber(42) {
		t.Errorf("y = %v, want 42", n)
	}
}

func TestDoFile(t *testing.T) {
	c := newContext(t)
	path := writeScript(t, t.TempDir(), "answer.lua", `answer = 42`)

	if err := c.DoFile(path); err != nil {
		t.Fatalf("DoFile: %v", err)
	}
	if n := c.State().GetGlobal("answer"); n != lua.LNumber(42) {
		t.Errorf("answer = %v, want 42", n)
	}
}

func TestDoFileMissing(t *testing.T) {
	c := newContext(t)

	err := c.DoFile(filepath.Join(t.TempDir(), "nope.lua"))
	if !errors.Is(err, luactx.ErrFile) {
		t.Fatalf("expected ErrFile, got %v", err)
	}
}

func TestLoadStringPCall(t *testing.T) {
	c := newContext(t)

	if err := c.LoadString(`return 6 * 7`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !c.IsFunction(-1) {
		t.Fatal("LoadString did not leave a function on the stack")
	}
	if err := c.PCall(0, 1, nil); err != nil {
		t.Fatalf("PCall: %v", err)
	}
	if got := c.ToNumber(-1); got != 42 {
		t.Errorf("result = %v, want 42", got)
	}
	if err := c.Pop(1); err != nil {
		t.Fatalf("Pop: %v", err)
	}
}

func TestPCallError(t *testing.T) {
	c := newContext(t)

	if err := c.LoadString(`error("nope")`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	err := c.PCall(0, 0, nil)
	if !errors.Is(err, luactx.ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", err)
	}
}

func TestTracebackHandlerProtected(t *testing.T) {
	c := newContext(t)

	// Slot 1 holds the traceback handler; it must not be removable.
	if err := c.Remove(1); !errors.Is(err, luactx.ErrStack) {
		t.Fatalf("Remove(1) = %v, want ErrStack", err)
	}
	c.PushNumber(1)
	if err := c.Pop(2); !errors.Is(err, luactx.ErrStack) {
		t.Fatalf("Pop(2) = %v, want ErrStack", err)
	}
	if err := c.Pop(1); err != nil {
		t.Fatalf("Pop(1): %v", err)
	}
}

func TestNoTracebacks(t *testing.T) {
	c := newContext(t, luactx.WithTracebacks(false))

	if got := c.StackSize(); got != 0 {
		t.Fatalf("stack size = %d, want 0 without tracebacks", got)
	}
	c.PushNumber(1)
	if err := c.Pop(1); err != nil {
		t.Fatalf("Pop: %v", err)
	}
}

func TestStackVeneer(t *testing.T) {
	c := newContext(t)

	c.PushString("hello")
	if !c.IsString(-1) || c.ToString(-1) != "hello" {
		t.Errorf("string round trip failed")
	}
	if err := c.Pop(1); err != nil {
		t.Fatal(err)
	}

	c.CreateTable(0, 1)
	c.PushNumber(7)
	c.SetField("lucky", -2)
	c.GetField(-1, "lucky")
	if got := c.ToNumber(-1); got != 7 {
		t.Errorf("t.lucky = %v, want 7", got)
	}
	if err := c.Pop(1); err != nil {
		t.Fatal(err)
	}

	c.SetGlobal("t")
	c.GetGlobal("t")
	if !c.IsTable(-1) {
		t.Error("global t is not a table")
	}
	if err := c.Pop(1); err != nil {
		t.Fatal(err)
	}
}

func TestAddPackageDir(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "helper.lua", `return {value = "from helper"}`)

	c := newContext(t)
	if err := c.AddPackageDir(dir); err != nil {
		t.Fatalf("AddPackageDir: %v", err)
	}
	if err := c.DoString(`v = require("helper").value`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got := c.State().GetGlobal("v"); got != lua.LString("from helper") {
		t.Errorf("v = %v", got)
	}
}

func TestSetStartScript(t *testing.T) {
	path := writeScript(t, t.TempDir(), "start.lua", `started = true`)

	c := newContext(t)
	if err := c.SetStartScript(path); err != nil {
		t.Fatalf("SetStartScript: %v", err)
	}
	if got := c.State().GetGlobal("started"); got != lua.LTrue {
		t.Errorf("started = %v, want true", got)
	}
}

func TestSetStartScriptModule(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "boot.lua", `booted = "yes"`)

	c := newContext(t)
	if err := c.AddPackageDir(dir); err != nil {
		t.Fatalf("AddPackageDir: %v", err)
	}
	// Not a readable file path, resolved via require.
	if err := c.SetStartScript("boot"); err != nil {
		t.Fatalf("SetStartScript: %v", err)
	}
	if got := c.State().GetGlobal("booted"); got != lua.LString("yes") {
		t.Errorf("booted = %v", got)
	}
}

func TestWrapDoesNotOwnState(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	w := luactx.Wrap(L)
	if err := w.DoString(`wrapped = 1`); err != nil {
		t.Fatalf("DoString on wrapped: %v", err)
	}
	w.Close()

	// The wrapped state must still be usable.
	if err := L.DoString(`wrapped = wrapped + 1`); err != nil {
		t.Fatalf("state closed by wrapper: %v", err)
	}
}
