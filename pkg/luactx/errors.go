package luactx

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Error types returned by context operations.
var (
	// ErrSyntax is returned when a chunk fails to compile.
	ErrSyntax = errors.New("luactx: syntax error")

	// ErrRuntime is returned when a chunk fails during execution.
	ErrRuntime = errors.New("luactx: runtime error")

	// ErrHandler is returned when the error handler itself failed.
	ErrHandler = errors.New("luactx: error handler failed")

	// ErrFile is returned when a script file cannot be opened.
	ErrFile = errors.New("luactx: cannot open file")

	// ErrNameTaken is returned when a global name is already bound with a
	// different binding kind.
	ErrNameTaken = errors.New("luactx: name already bound")

	// ErrStack is returned by stack operations that would displace the
	// traceback handler.
	ErrStack = errors.New("luactx: invalid stack operation")
)

// wrapLuaError classifies a gopher-lua error under the package sentinels.
// The what argument names the operation, matching the error texts the
// callbacks and logs carry.
func wrapLuaError(what string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		msg := apiErr.Object.String()
		switch apiErr.Type {
		case lua.ApiErrorSyntax:
			return fmt.Errorf("%w (in %s): %s", ErrSyntax, what, msg)
		case lua.ApiErrorFile:
			return fmt.Errorf("%w (in %s): %s", ErrFile, what, msg)
		case lua.ApiErrorError:
			return fmt.Errorf("%w (in %s): %s", ErrHandler, what, msg)
		default:
			return fmt.Errorf("%w (in %s): %s", ErrRuntime, what, msg)
		}
	}
	return fmt.Errorf("%w (in %s): %v", ErrRuntime, what, err)
}
