package runtime

import (
	"io"
	"net/http"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// httpResult holds the outcome of an HTTP request.
type httpResult struct {
	Status  int
	Headers map[string]string
	Body    string
	Err     error
}

// builtinHTTP implements host.http(request) -> response
// request: { url: string, method: string?, headers: {[string]: string}?, body: string? }
// response: { status: number, headers: {[string]: string}, body: string, err: string? }
func (rt *Runtime) builtinHTTP(L *lua.LState) int {
	tbl, ok := L.Get(1).(*lua.LTable)
	if !ok {
		L.Push(errResponse(L, "request must be a table"))
		return 1
	}

	urlStr := lua.LVAsString(tbl.RawGetString("url"))
	if urlStr == "" {
		L.Push(errResponse(L, "url is required"))
		return 1
	}

	method := lua.LVAsString(tbl.RawGetString("method"))
	if method == "" {
		method = http.MethodGet
	}

	body := lua.LVAsString(tbl.RawGetString("body"))

	headers := make(map[string]string)
	if ht, ok := tbl.RawGetString("headers").(*lua.LTable); ok {
		ht.ForEach(func(k, v lua.LValue) {
			key := lua.LVAsString(k)
			value := lua.LVAsString(v)
			if key != "" && value != "" {
				headers[key] = value
			}
		})
	}

	result := rt.executeHTTP(method, urlStr, headers, body)
	L.Push(httpResponseTable(L, result))
	return 1
}

// executeHTTP performs the actual HTTP request.
func (rt *Runtime) executeHTTP(method, urlStr string, headers map[string]string, body string) httpResult {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, urlStr, bodyReader)
	if err != nil {
		return httpResult{Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := rt.client.Do(req)
	if err != nil {
		return httpResult{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// Continue with the partial body, if any.
		rt.logger.Warn("http: error reading response body", "error", err)
	}

	respHeaders := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			respHeaders[k] = v[0]
		}
	}

	return httpResult{
		Status:  resp.StatusCode,
		Headers: respHeaders,
		Body:    string(respBody),
	}
}

// httpResponseTable builds the Lua response table for a result.
func httpResponseTable(L *lua.LState, result httpResult) *lua.LTable {
	t := L.NewTable()
	if result.Err != nil {
		t.RawSetString("status", lua.LNumber(0))
		t.RawSetString("err", lua.LString(result.Err.Error()))
		return t
	}

	t.RawSetString("status", lua.LNumber(result.Status))
	t.RawSetString("body", lua.LString(result.Body))

	ht := L.NewTable()
	for k, v := range result.Headers {
		ht.RawSetString(k, lua.LString(v))
	}
	t.RawSetString("headers", ht)
	return t
}

// errResponse builds a response table carrying only an error message.
func errResponse(L *lua.LState, msg string) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("err", lua.LString(msg))
	return t
}
