package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/api/middleware"
	"resume-extractor/internal/config"
)

// RegisterRoutes 注册 API 路由。/health 不经过鉴权和限流。
func RegisterRoutes(h *server.Hertz, cfg *config.Config, extractHandler *handler.ExtractHandler) {
	h.Use(middleware.RequestID(), middleware.AccessLog())

	h.GET("/health", extractHandler.Health)

	api := h.Group("/api/v1", middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	if auth := middleware.APIKeyAuth(cfg.Auth.Header, cfg.Auth.APIKeys); auth != nil {
		api.Use(auth)
	}

	api.POST("/extract", extractHandler.ExtractText)
	api.POST("/extract/file", extractHandler.ExtractFile)

	api.POST("/resumes", extractHandler.UploadResume)
	api.GET("/resumes/:id", extractHandler.GetResume)

	api.GET("/candidates/:id", extractHandler.GetCandidate)
	api.GET("/candidates/:id/prompt-context", extractHandler.GetPromptContext)
}
