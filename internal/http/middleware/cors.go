package middleware

import (
	"github.com/valyala/fasthttp"
)

// CORS returns middleware that lets browsers on the allowed origins call the
// wrapped handler. An origin list containing "*" allows every origin.
// Preflight requests are answered directly with 204.
func CORS(origins []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" && (allowAll || allowed[origin]) {
				if allowAll {
					ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
				} else {
					ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
					ctx.Response.Header.Add("Vary", "Origin")
				}
			}

			if ctx.IsOptions() && len(ctx.Request.Header.Peek("Access-Control-Request-Method")) > 0 {
				ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
				ctx.Response.Header.Set("Access-Control-Max-Age", "600")
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			next(ctx)
		}
	}
}
