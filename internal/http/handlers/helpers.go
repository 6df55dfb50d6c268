package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/valyala/fasthttp"
)

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}

// queryInt reads an integer query argument, falling back to def when the
// argument is absent or not a positive number.
func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	if s := string(ctx.QueryArgs().Peek(key)); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// pathString reads a string route parameter set by the router.
func pathString(ctx *fasthttp.RequestCtx, key string) string {
	v := ctx.UserValue(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
