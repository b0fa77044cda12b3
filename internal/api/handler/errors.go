package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor/internal/logger"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/tracing"
)

// 错误码，出现在响应体的 code 字段
const (
	CodeBadRequest      = "bad_request"
	CodeEmptyText       = "empty_text"
	CodeTextTooLong     = "text_too_long"
	CodeFileTooLarge    = "file_too_large"
	CodeUnsupportedType = "unsupported_file_type"
	CodeDocumentParse   = "document_parse_failed"
	CodeNotFound        = "not_found"
	CodeDuplicate       = "duplicate_upload"
	CodeUnavailable     = "storage_unavailable"
	CodeUnauthorized    = "unauthorized"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ResumeID string `json:"resume_id,omitempty"` // 重复上传时指向已有记录
}

// statusFor 把业务错误映射为 HTTP 状态码和错误码
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, processor.ErrEmptyText):
		return consts.StatusBadRequest, CodeEmptyText
	case errors.Is(err, processor.ErrTextTooLong):
		return consts.StatusRequestEntityTooLarge, CodeTextTooLong
	case errors.Is(err, processor.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.Is(err, processor.ErrUnsupportedFileType):
		return consts.StatusUnsupportedMediaType, CodeUnsupportedType
	case errors.Is(err, processor.ErrDocumentParse):
		return consts.StatusUnprocessableEntity, CodeDocumentParse
	case errors.Is(err, processor.ErrCandidateNotFound), errors.Is(err, processor.ErrResumeNotFound):
		return consts.StatusNotFound, CodeNotFound
	case errors.Is(err, processor.ErrDuplicateUpload):
		return consts.StatusConflict, CodeDuplicate
	case errors.Is(err, processor.ErrStorageNotInit):
		return consts.StatusServiceUnavailable, CodeUnavailable
	default:
		return consts.StatusInternalServerError, CodeInternal
	}
}

// writeError 写错误响应并记录到当前 span。5xx 不向调用方暴露内部错误细节。
func writeError(c context.Context, ctx *app.RequestContext, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Code: code, Message: err.Error()}
	if id, ok := processor.DuplicateResumeID(err); ok {
		resp.ResumeID = id
	}

	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	if status >= consts.StatusInternalServerError {
		logger.Ctx(c).Error().Err(err).Int("status", status).Str("path", string(ctx.Path())).Msg("请求处理失败")
		if status == consts.StatusInternalServerError {
			resp.Message = "内部错误"
		}
	} else {
		logger.Ctx(c).Debug().Err(err).Int("status", status).Msg("请求被拒绝")
	}
	ctx.JSON(status, resp)
}

// badRequest 请求格式本身有误
func badRequest(ctx *app.RequestContext, msg string) {
	ctx.JSON(consts.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: msg})
}
