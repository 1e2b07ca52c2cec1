package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), Options{
		APIKey:     "test-key",
		Model:      "gemini-test",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return g
}

func TestGenerateReturnsText(t *testing.T) {
	var gotPrompt string
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotPrompt = string(body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"hello there"}]},"finishReason":"STOP"}]}`)
	})

	text, err := g.Generate(context.Background(), "knowledge base prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Contains(t, gotPrompt, "knowledge base prompt")
}

func TestGenerateClassifiesStatus(t *testing.T) {
	for _, tc := range []struct {
		code   int
		status string
	}{
		{http.StatusForbidden, "PERMISSION_DENIED"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusBadRequest, "INVALID_ARGUMENT"},
	} {
		t.Run(tc.status, func(t *testing.T) {
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.code)
				io.WriteString(w, `{"error":{"code":`+strconv.Itoa(tc.code)+`,"message":"nope","status":"`+tc.status+`"}}`)
			})

			_, err := g.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tc.code, StatusCode(err))
		})
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), Options{Model: "gemini-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, StatusCode(err))
	assert.Zero(t, calls.Load())
}

func TestStatusCodeUnwraps(t *testing.T) {
	err := &Error{StatusCode: 404, Err: errors.New("gone")}
	wrapped := errors.Join(errors.New("context"), err)

	assert.Equal(t, 404, StatusCode(wrapped))
	assert.Zero(t, StatusCode(errors.New("plain")))
	assert.Zero(t, StatusCode(nil))
}
