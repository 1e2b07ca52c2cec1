package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"botrelay/internal/chat"
)

// The public chat handlers run the service on a background context: a client
// that disconnects does not cancel an in-flight lookup or AI call.

// BotDetails serves GET /chat/bot-details?secretKey=...&website=...
func BotDetails(svc *chat.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		secretKey := string(ctx.QueryArgs().Peek("secretKey"))
		website := string(ctx.QueryArgs().Peek("website"))

		resp, err := svc.BotDetails(context.Background(), secretKey, website)
		if err != nil {
			outcome := chatError(ctx, err, chat.MsgLookupFailed)
			botLookupsTotal.WithLabelValues(outcome).Inc()
			return
		}

		botLookupsTotal.WithLabelValues(resp.Outcome).Inc()
		jsonResponse(ctx, fasthttp.StatusOK, resp)
	}
}

// SendMessage serves POST /chat/message. The body may be JSON or form encoded.
func SendMessage(svc *chat.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		req, ok := parseMessageRequest(ctx)
		if !ok {
			chatMessagesTotal.WithLabelValues("", chat.KindBadRequest.String()).Inc()
			return
		}

		resp, err := svc.SendMessage(context.Background(), req)
		if err != nil {
			outcome := chatError(ctx, err, chat.MsgMessageFailed)
			chatMessagesTotal.WithLabelValues("", outcome).Inc()
			chatMessageDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
			return
		}

		chatMessagesTotal.WithLabelValues(botLabel(resp.BotID), resp.Outcome).Inc()
		chatMessageDuration.WithLabelValues(resp.Outcome).Observe(time.Since(start).Seconds())
		jsonResponse(ctx, fasthttp.StatusOK, resp)
	}
}

func parseMessageRequest(ctx *fasthttp.RequestCtx) (chat.MessageRequest, bool) {
	var req chat.MessageRequest
	if bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("application/json")) {
		if len(ctx.PostBody()) == 0 {
			return req, true
		}
		var body any
		if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return req, false
		}
		// Well-formed JSON of the wrong shape is not a parse error: a
		// non-object body carries no fields, and non-string values are
		// stringified so validation and lookup decide the outcome.
		fields, _ := body.(map[string]any)
		req.SecretKey = jsonField(fields, "secretKey")
		req.Website = jsonField(fields, "website")
		req.Message = jsonField(fields, "message")
		return req, true
	}

	args := ctx.PostArgs()
	req.SecretKey = string(args.Peek("secretKey"))
	req.Website = string(args.Peek("website"))
	req.Message = string(args.Peek("message"))
	return req, true
}

func jsonField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
