package middleware

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "botrelay/internal/db"
	httpctx "botrelay/internal/http/ctx"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := dbpkg.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&dbpkg.User{Username: "alice", PasswordHash: string(hash)}).Error)
	return gdb
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAdminAuth(t *testing.T) {
	gdb := setupTestDB(t)

	var seen *dbpkg.User
	h := AdminAuth(gdb)(func(ctx *fasthttp.RequestCtx) {
		seen, _ = httpctx.UserFromCtx(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	for _, tc := range []struct {
		name   string
		header string
		want   int
	}{
		{"valid", basic("alice", "s3cret"), fasthttp.StatusOK},
		{"wrong password", basic("alice", "nope"), fasthttp.StatusUnauthorized},
		{"unknown user", basic("bob", "s3cret"), fasthttp.StatusUnauthorized},
		{"missing", "", fasthttp.StatusUnauthorized},
		{"bearer", "Bearer abc", fasthttp.StatusUnauthorized},
		{"garbage", "Basic !!!", fasthttp.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			var ctx fasthttp.RequestCtx
			if tc.header != "" {
				ctx.Request.Header.Set("Authorization", tc.header)
			}
			h(&ctx)

			assert.Equal(t, tc.want, ctx.Response.StatusCode())
			if tc.want == fasthttp.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "alice", seen.Username)
			} else {
				assert.Nil(t, seen)
				assert.NotEmpty(t, ctx.Response.Header.Peek("WWW-Authenticate"))
			}
		})
	}
}

func TestCORSAllowAll(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(func(ctx *fasthttp.RequestCtx) { called = true })

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.Header.Set("Origin", "https://shop.example")
	h(&ctx)

	assert.True(t, called)
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}

func TestCORSAllowList(t *testing.T) {
	h := CORS([]string{"https://shop.example"})(func(ctx *fasthttp.RequestCtx) {})

	var ok fasthttp.RequestCtx
	ok.Request.Header.Set("Origin", "https://shop.example")
	h(&ok)
	assert.Equal(t, "https://shop.example", string(ok.Response.Header.Peek("Access-Control-Allow-Origin")))

	var denied fasthttp.RequestCtx
	denied.Request.Header.Set("Origin", "https://evil.example")
	h(&denied)
	assert.Empty(t, denied.Response.Header.Peek("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(func(ctx *fasthttp.RequestCtx) { called = true })

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodOptions)
	ctx.Request.Header.Set("Origin", "https://shop.example")
	ctx.Request.Header.Set("Access-Control-Request-Method", "POST")
	h(&ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), "POST")
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(func(ctx *fasthttp.RequestCtx) {
		got, _ = httpctx.RequestIDFromCtx(ctx)
	})

	var fresh fasthttp.RequestCtx
	h(&fresh)
	assert.NotEmpty(t, got)
	assert.Equal(t, got, string(fresh.Response.Header.Peek("X-Request-ID")))

	var reused fasthttp.RequestCtx
	reused.Request.Header.Set("X-Request-ID", "abc-123")
	h(&reused)
	assert.Equal(t, "abc-123", got)
}
