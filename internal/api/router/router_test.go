package router

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/config"
	"resume-extractor/internal/processor"
)

func TestRegisterRoutes_APIKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.APIKeys = []string{"k1"}

	h := NewServer(cfg)
	RegisterRoutes(h, cfg, handler.NewExtractHandler(processor.NewExtractionService(cfg, nil)))

	// 健康检查不需要鉴权
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := []byte(`{"text":"hello"}`)
	w = ut.PerformRequest(h.Engine, http.MethodPost, "/api/v1/extract",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ut.PerformRequest(h.Engine, http.MethodPost, "/api/v1/extract",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
		ut.Header{Key: "X-API-Key", Value: "k1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRoutes_MethodNotAllowed(t *testing.T) {
	cfg := &config.Config{}
	h := NewServer(cfg)
	RegisterRoutes(h, cfg, handler.NewExtractHandler(processor.NewExtractionService(cfg, nil)))

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/extract", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
