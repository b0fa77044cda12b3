package router

import (
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"resume-extractor/internal/config"
)

// NewServer 创建带服务端链路追踪的 Hertz 实例，路由需另外调用 RegisterRoutes 注册
func NewServer(cfg *config.Config, opts ...hertzconfig.Option) *server.Hertz {
	tracer, tracerCfg := hertztracing.NewServerTracer()

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	}
	if cfg.Server.MaxRequestBodyMB > 0 {
		serverOpts = append(serverOpts, server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB*1024*1024))
	}
	serverOpts = append(serverOpts, opts...)

	h := server.New(serverOpts...)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	return h
}
