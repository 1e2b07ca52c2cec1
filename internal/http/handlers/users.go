package handlers

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dbpkg "botrelay/internal/db"
)

type userPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// CreateUser serves POST /admin/users. Only admins may create accounts.
func CreateUser(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustUser(ctx)
		if !ok {
			return
		}
		if !caller.IsAdmin {
			errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
			return
		}

		var p userPayload
		if err := json.Unmarshal(ctx.PostBody(), &p); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if p.Username == "" || p.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := &dbpkg.User{
			Username:     p.Username,
			PasswordHash: string(hash),
			IsAdmin:      p.IsAdmin,
		}

		if err := db.Create(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create user (username may already exist)")
			return
		}

		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{"data": user})
	}
}
