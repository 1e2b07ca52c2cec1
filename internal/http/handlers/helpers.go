package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"botrelay/internal/chat"
	dbpkg "botrelay/internal/db"
	httpctx "botrelay/internal/http/ctx"
)

// MustUser returns the current user from context, or sends 401 and returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Error("encoding response")
		errResponse(ctx, fasthttp.StatusInternalServerError, "Internal Server Error")
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

type errorBody struct {
	Data  any         `json:"data"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// errResponse writes a hard error in the envelope widget clients already parse.
func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	body, _ := json.Marshal(errorBody{
		Error: errorDetail{
			Status:  code,
			Name:    errorName(code),
			Message: msg,
			Details: map[string]any{},
		},
	})
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errorName(code int) string {
	switch code {
	case fasthttp.StatusBadRequest:
		return "BadRequestError"
	case fasthttp.StatusUnauthorized:
		return "UnauthorizedError"
	case fasthttp.StatusForbidden:
		return "ForbiddenError"
	case fasthttp.StatusNotFound:
		return "NotFoundError"
	default:
		return "InternalServerError"
	}
}

// chatError maps a service error to its HTTP status and writes it. It
// returns the outcome label recorded in metrics.
func chatError(ctx *fasthttp.RequestCtx, err error, fallback string) string {
	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		logrus.WithError(err).Error("unexpected chat service error")
		errResponse(ctx, fasthttp.StatusInternalServerError, fallback)
		return chat.KindInternal.String()
	}

	switch chatErr.Kind {
	case chat.KindBadRequest:
		errResponse(ctx, fasthttp.StatusBadRequest, chatErr.Message)
	case chat.KindUnauthorized:
		errResponse(ctx, fasthttp.StatusUnauthorized, chatErr.Message)
	case chat.KindNotFound:
		errResponse(ctx, fasthttp.StatusNotFound, chatErr.Message)
	default:
		errResponse(ctx, fasthttp.StatusInternalServerError, chatErr.Message)
	}
	return chatErr.Kind.String()
}

// pathID parses the {id} route parameter, writing 400 when it is invalid.
func pathID(ctx *fasthttp.RequestCtx) (uint, bool) {
	idStr, ok := ctx.UserValue("id").(string)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
