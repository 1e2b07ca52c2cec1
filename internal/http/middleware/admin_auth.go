package middleware

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dbpkg "botrelay/internal/db"
	httpctx "botrelay/internal/http/ctx"
)

// AdminAuth returns middleware that authenticates HTTP Basic credentials
// against the users table and sets the user on the context.
func AdminAuth(db *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			username, password, ok := basicAuth(ctx)
			if !ok {
				unauthorized(ctx, "missing credentials")
				return
			}

			var user dbpkg.User
			if err := db.Where("username = ?", username).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					unauthorized(ctx, "invalid credentials")
					return
				}
				logrus.WithError(err).Error("loading admin user")
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("database error")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				unauthorized(ctx, "invalid credentials")
				return
			}

			httpctx.SetUser(ctx, &user)
			next(ctx)
		}
	}
}

func basicAuth(ctx *fasthttp.RequestCtx) (username, password string, ok bool) {
	auth := ctx.Request.Header.Peek("Authorization")
	const prefix = "Basic "
	if len(auth) < len(prefix) || !bytes.EqualFold(auth[:len(prefix)], []byte(prefix)) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(auth[len(prefix):])))
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok || username == "" {
		return "", "", false
	}
	return username, password, true
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	ctx.Response.Header.Set("WWW-Authenticate", `Basic realm="botrelay admin"`)
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(msg)
}
