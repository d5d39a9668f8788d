package runtime

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// builtinLog implements host.log(...)
func (rt *Runtime) builtinLog(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)

	for i := 1; i <= n; i++ {
		v := L.Get(i)
		switch v.Type() {
		case lua.LTNil:
			parts = append(parts, "nil")
		case lua.LTBool:
			parts = append(parts, v.String())
		case lua.LTNumber:
			parts = append(parts, fmt.Sprintf("%g", float64(v.(lua.LNumber))))
		case lua.LTString:
			parts = append(parts, string(v.(lua.LString)))
		case lua.LTTable:
			parts = append(parts, "[table]")
		case lua.LTFunction:
			parts = append(parts, "[function]")
		default:
			parts = append(parts, fmt.Sprintf("[%s]", v.Type().String()))
		}
	}

	rt.logger.Info(strings.Join(parts, "\t"))
	return 0
}
