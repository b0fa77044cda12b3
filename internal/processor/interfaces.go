package processor

import (
	"context"
	"time"

	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/types"
)

//
// 文档解析
//

// DocumentLoader 把上传的文件转换成归一化纯文本，parser.DocumentLoader 实现该接口
type DocumentLoader interface {
	// CheckUpload 只做大小与类型校验，不解析内容
	CheckUpload(filename, contentType string, size int64) error

	// Load 解析文档并返回纯文本
	Load(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

//
// 存储相关接口，storage 包中的具体类型实现它们
//

// ResultCache 抽取结果缓存
type ResultCache interface {
	GetCachedResult(ctx context.Context, textMD5 string) (*types.ExtractedInfo, error)
	SetCachedResult(ctx context.Context, textMD5 string, info *types.ExtractedInfo) error
}

// UploadDeduplicator 上传文件去重
type UploadDeduplicator interface {
	// CheckAndAddFileMD5 原子登记；exists 为 true 时 existingID 是首次登记的简历ID
	CheckAndAddFileMD5(ctx context.Context, md5Hex, resumeID string) (exists bool, existingID string, err error)
	RemoveFileMD5(ctx context.Context, md5Hex string) error
}

// ProfileStore 简历记录与候选人档案
type ProfileStore interface {
	CreateResume(ctx context.Context, resume *models.Resume) error
	UpdateResumeStatus(ctx context.Context, resumeID, status, errMsg string) error
	SetParsedTextPath(ctx context.Context, resumeID, objectName string) error
	GetResume(ctx context.Context, resumeID string) (*models.Resume, error)

	// SaveCandidate 合并抽取结果并在同一事务中写入 outbox 事件
	SaveCandidate(ctx context.Context, info *types.ExtractedInfo, resumeID string) (*models.Candidate, error)
	GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error)
}

// ObjectStorage 原始文件与解析文本
type ObjectStorage interface {
	UploadResume(ctx context.Context, resumeID, fileExt string, data []byte, contentType string) (string, error)
	DownloadResume(ctx context.Context, objectName string) ([]byte, error)
	UploadParsedText(ctx context.Context, resumeID, text string) (string, error)
	DeleteResume(ctx context.Context, objectName string) error
	PresignedResumeURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// MessageQueue 消息发布
type MessageQueue interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data any, persistent bool) error
}
