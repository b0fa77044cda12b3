// Package middleware Hertz 中间件：请求ID、访问日志、限流和 API Key 鉴权
package middleware

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	"golang.org/x/time/rate"

	"resume-extractor/internal/logger"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

// DefaultAPIKeyHeader 默认的 API Key 头
const DefaultAPIKeyHeader = "X-API-Key"

// requestIDKey RequestContext 中保存请求ID的键
const requestIDKey = "request_id"

// RequestID 沿用调用方传入的 X-Request-ID，没有时生成一个，并把带 request_id 的 logger 放进上下文
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.Request.Header.Peek(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Response.Header.Set(HeaderRequestID, id)
		ctx.Next(logger.WithRequestID(c, id))
	}
}

// GetRequestID 取出当前请求ID
func GetRequestID(ctx *app.RequestContext) string {
	return ctx.GetString(requestIDKey)
}

// AccessLog 每个请求结束后记录一行访问日志
func AccessLog() app.HandlerFunc {
	log := logger.Component("access")
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)

		status := ctx.Response.StatusCode()
		event := log.Info()
		if status >= consts.StatusInternalServerError {
			event = log.Error()
		} else if status >= consts.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("request_id", GetRequestID(ctx)).
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request")
	}
}

// RateLimit 进程级令牌桶限流，rps<=0 时不限流
func RateLimit(rps float64, burst int) app.HandlerFunc {
	if rps <= 0 {
		return func(c context.Context, ctx *app.RequestContext) { ctx.Next(c) }
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			ctx.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]string{
				"code":    "rate_limited",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		ctx.Next(c)
	}
}

// APIKeyAuth 校验请求头中的 API Key。keys 为空时返回 nil，调用方不挂载该中间件。
func APIKeyAuth(header string, keys []string) app.HandlerFunc {
	if len(keys) == 0 {
		return nil
	}
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			for _, k := range allowed {
				if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			logger.Ctx(c).Warn().Str("path", string(ctx.Path())).Msg("API Key 校验失败")
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{
				"code":    "unauthorized",
				"message": "缺少或无效的 API Key",
			})
		}),
	)
}
