package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-extractor/internal/constants"
	"resume-extractor/internal/processor"
)

// ExtractHandler 简历抽取相关的 HTTP 处理器
type ExtractHandler struct {
	service *processor.ExtractionService
}

// NewExtractHandler 创建处理器
func NewExtractHandler(service *processor.ExtractionService) *ExtractHandler {
	return &ExtractHandler{service: service}
}

// ExtractTextRequest POST /extract 的请求体
type ExtractTextRequest struct {
	Text string `json:"text"`
}

// Health 健康检查
func (h *ExtractHandler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// ExtractText 对 JSON 中的纯文本做同步抽取
func (h *ExtractHandler) ExtractText(c context.Context, ctx *app.RequestContext) {
	var req ExtractTextRequest
	if err := ctx.BindJSON(&req); err != nil {
		badRequest(ctx, "请求体必须是包含 text 字段的 JSON")
		return
	}

	info, err := h.service.ExtractText(c, req.Text)
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, info)
}

// ExtractFile 解析上传的文件并同步返回抽取结果，不做持久化
func (h *ExtractHandler) ExtractFile(c context.Context, ctx *app.RequestContext) {
	name, contentType, data, ok := readUpload(c, ctx)
	if !ok {
		return
	}

	info, err := h.service.ExtractDocument(c, name, contentType, data)
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, info)
}

// UploadResume 登记一份简历。异步模式返回 202，同步模式直接返回抽取结果。
func (h *ExtractHandler) UploadResume(c context.Context, ctx *app.RequestContext) {
	name, contentType, data, ok := readUpload(c, ctx)
	if !ok {
		return
	}

	result, err := h.service.SubmitUpload(c, name, contentType, data)
	if err != nil {
		writeError(c, ctx, err)
		return
	}

	status := consts.StatusOK
	if result.Status == constants.StatusQueued {
		status = consts.StatusAccepted
	}
	ctx.JSON(status, result)
}

// GetCandidate 查询候选人档案
func (h *ExtractHandler) GetCandidate(c context.Context, ctx *app.RequestContext) {
	candidate, err := h.service.GetCandidate(c, ctx.Param("id"))
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, candidate)
}

// GetPromptContext 返回候选人的提示词上下文
func (h *ExtractHandler) GetPromptContext(c context.Context, ctx *app.RequestContext) {
	pc, err := h.service.GetPromptContext(c, ctx.Param("id"))
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, pc)
}

// GetResume 查询简历处理状态
func (h *ExtractHandler) GetResume(c context.Context, ctx *app.RequestContext) {
	view, err := h.service.GetResume(c, ctx.Param("id"))
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

// readUpload 读取 multipart 中的 file 字段。失败时已经写好响应，调用方直接返回。
func readUpload(c context.Context, ctx *app.RequestContext) (string, string, []byte, bool) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		badRequest(ctx, "文件未找到")
		return "", "", nil, false
	}

	data, err := readFileHeader(fileHeader)
	if err != nil {
		writeError(c, ctx, err)
		return "", "", nil, false
	}
	return fileHeader.Filename, partContentType(fileHeader), data, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	return data, nil
}

// partContentType 取 part 自带的 Content-Type，去掉 charset 等参数
func partContentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
