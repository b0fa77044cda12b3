package processor

import (
	"errors"
	"fmt"

	"resume-extractor/internal/parser"
)

// 定义基础错误类型，HTTP 层据此映射状态码
var (
	ErrUnsupportedFileType = parser.ErrUnsupportedFileType
	ErrFileTooLarge        = parser.ErrFileTooLarge
	ErrDocumentParse       = parser.ErrDocumentParse

	ErrEmptyText          = errors.New("上传内容为空")
	ErrTextTooLong        = errors.New("文本长度超过上限")
	ErrStorage            = errors.New("存储操作失败")
	ErrStorageNotInit     = errors.New("存储未初始化")
	ErrCandidateNotFound  = errors.New("候选人不存在")
	ErrResumeNotFound     = errors.New("简历记录不存在")
	ErrDuplicateUpload    = errors.New("重复上传的文件")
	ErrInvalidMessage     = errors.New("无法解析的队列消息")
	ErrPublishMessage     = errors.New("发布消息失败")
	ErrResumeDownloadFail = errors.New("下载简历失败")
)

// ExtractionError 包含详细错误信息的自定义错误
type ExtractionError struct {
	ResumeID string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, ResumeID:%s): %s", e.BaseErr, e.Op, e.ResumeID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, ResumeID:%s)", e.BaseErr, e.Op, e.ResumeID)
}

func (e *ExtractionError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newExtractionError(op, resumeID string, base error, detail string) error {
	return &ExtractionError{
		ResumeID: resumeID,
		Op:       op,
		BaseErr:  base,
		Detail:   detail,
	}
}

// NewDuplicateError 文件已上传过，ResumeID 为首次上传时登记的ID
func NewDuplicateError(existingID string) error {
	return newExtractionError("dedup", existingID, ErrDuplicateUpload, "")
}

// NewStorageError 存储层失败
func NewStorageError(op, resumeID string, err error) error {
	return &ExtractionError{
		ResumeID: resumeID,
		Op:       op,
		BaseErr:  fmt.Errorf("%w: %w", ErrStorage, err),
	}
}

// DuplicateResumeID 从重复上传错误中取出已存在的简历ID
func DuplicateResumeID(err error) (string, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) && errors.Is(ee.BaseErr, ErrDuplicateUpload) {
		return ee.ResumeID, true
	}
	return "", false
}
