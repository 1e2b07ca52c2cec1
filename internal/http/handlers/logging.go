package handlers

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	httpctx "botrelay/internal/http/ctx"
)

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)

		fields := logrus.Fields{
			"method":   string(ctx.Method()),
			"path":     string(ctx.Path()),
			"status":   ctx.Response.StatusCode(),
			"duration": time.Since(start).String(),
			"ip":       ctx.RemoteIP().String(),
		}
		if id, ok := httpctx.RequestIDFromCtx(ctx); ok {
			fields["request_id"] = id
		}
		logrus.WithFields(fields).Info("request")
	}
}
