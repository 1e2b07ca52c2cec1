package middleware

import (
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	httpctx "botrelay/internal/http/ctx"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an ID, reusing the caller's X-Request-ID
// when present, and echoes it on the response.
func RequestID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		httpctx.SetRequestID(ctx, id)
		ctx.Response.Header.Set(requestIDHeader, id)
		next(ctx)
	}
}
