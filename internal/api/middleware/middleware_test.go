package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...app.HandlerFunc) *server.Hertz {
	h := server.Default()
	h.Use(mw...)
	h.GET("/ping", func(c context.Context, ctx *app.RequestContext) {
		ctx.String(http.StatusOK, GetRequestID(ctx))
	})
	return h
}

func TestRequestID(t *testing.T) {
	h := newEngine(RequestID())

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil)
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil,
		ut.Header{Key: HeaderRequestID, Value: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-123", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := newEngine(RateLimit(0.001, 2))

	assert.Equal(t, http.StatusOK, ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := newEngine(RateLimit(0, 0))
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil).Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	assert.Nil(t, APIKeyAuth("", nil))

	h := newEngine(APIKeyAuth("", []string{"secret-1", "secret-2"}))

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil,
		ut.Header{Key: DefaultAPIKeyHeader, Value: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil,
		ut.Header{Key: DefaultAPIKeyHeader, Value: "secret-2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessLog_PassesThrough(t *testing.T) {
	h := newEngine(RequestID(), AccessLog())
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, w.Header().Get(HeaderRequestID), w.Body.String())
}
