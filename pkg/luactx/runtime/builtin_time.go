package runtime

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// builtinTime implements host.time() -> number
// Returns the current Unix timestamp in seconds with millisecond precision.
func (rt *Runtime) builtinTime(L *lua.LState) int {
	now := float64(time.Now().UnixMilli()) / 1000.0
	L.Push(lua.LNumber(now))
	return 1
}

// builtinParseTime implements host.parse_time(iso_string) -> number
// Parses an ISO 8601 date string and returns a Unix timestamp in seconds,
// or nil if parsing fails.
func (rt *Runtime) builtinParseTime(L *lua.LState) int {
	isoStr := L.CheckString(1)
	if isoStr == "" {
		L.Push(lua.LNil)
		return 1
	}

	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		t, err := time.Parse(format, isoStr)
		if err == nil {
			L.Push(lua.LNumber(float64(t.UnixMilli()) / 1000.0))
			return 1
		}
	}

	L.Push(lua.LNil)
	return 1
}
