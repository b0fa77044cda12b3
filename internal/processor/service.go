package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/extractor"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/parser"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"
	"resume-extractor/pkg/utils"
)

var tracer = otel.Tracer("resume-extractor/processor")

const (
	presignExpiry     = 15 * time.Minute
	maxStoredErrorLen = 500
)

// UploadResult 上传接口的返回
type UploadResult struct {
	ResumeID    string               `json:"resume_id"`
	Status      string               `json:"status"`
	CandidateID string               `json:"candidate_id,omitempty"`
	Info        *types.ExtractedInfo `json:"result,omitempty"` // 仅同步处理时返回
}

// ResumeView 简历记录及原文件的临时下载链接
type ResumeView struct {
	*models.Resume
	DownloadURL string `json:"download_url,omitempty"`
}

// ExtractionService 串联文档解析、抽取引擎和存储。
// 除 loader 外的组件都是可选的：没有缓存就每次都跑引擎，没有队列就同步处理上传。
type ExtractionService struct {
	engine  *extractor.Engine
	loader  DocumentLoader
	cache   ResultCache
	dedup   UploadDeduplicator
	store   ProfileStore
	objects ObjectStorage
	queue   MessageQueue
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewExtractionService 创建服务
func NewExtractionService(cfg *config.Config, loader DocumentLoader, opts ...Option) *ExtractionService {
	if cfg == nil {
		cfg = &config.Config{}
	}
	s := &ExtractionService{
		engine: extractor.New(),
		loader: loader,
		cfg:    cfg,
		logger: logger.Component("processor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Async 上传是否走队列
func (s *ExtractionService) Async() bool {
	return s.queue != nil && s.objects != nil
}

func (s *ExtractionService) useCache() bool {
	return s.cache != nil && s.cfg.Extractor.CacheResults
}

// ExtractText 对纯文本运行抽取引擎。
// 空白输入直接返回规范空记录；超长输入按配置截断或返回 ErrTextTooLong。
func (s *ExtractionService) ExtractText(ctx context.Context, text string) (types.ExtractedInfo, error) {
	ctx, span := tracer.Start(ctx, "ExtractionService.ExtractText")
	defer span.End()
	log := logger.Ctx(ctx)

	if strings.TrimSpace(text) == "" {
		span.SetAttributes(attribute.Bool("text.empty", true))
		return types.EmptyExtractedInfo(), nil
	}

	if limit := s.cfg.Extractor.MaxInputRunes; limit > 0 {
		if n := parser.RuneCount(text); n > limit {
			if !s.cfg.Extractor.TruncateLongInput {
				err := fmt.Errorf("%w: %d runes exceeds limit of %d", ErrTextTooLong, n, limit)
				tracing.RecordError(span, err, tracing.ErrorTypeValidation)
				return types.ExtractedInfo{}, err
			}
			log.Warn().Int("runes", n).Int("limit", limit).Msg("输入文本超长，已截断")
			text = parser.TruncateRunes(text, limit)
		}
	}
	span.SetAttributes(attribute.Int("text.runes", parser.RuneCount(text)))

	textMD5 := utils.CalculateMD5([]byte(text))
	if s.useCache() {
		cached, err := s.cache.GetCachedResult(ctx, textMD5)
		switch {
		case err == nil && cached != nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return *cached, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			log.Warn().Err(err).Msg("读取抽取结果缓存失败")
		}
	}

	start := time.Now()
	info := s.engine.Extract(text)
	span.SetAttributes(
		attribute.Bool("result.has_contact", info.HasContact()),
		attribute.String("text.preview", tracing.SafeResumeContent(text)),
	)
	log.Debug().
		Dur("took", time.Since(start)).
		Int("skills", len(info.Skills)).
		Int("years", info.YearsOfExperience).
		Strs("missing", info.MissingFields()).
		Msg("文本抽取完成")

	if s.useCache() {
		if err := s.cache.SetCachedResult(ctx, textMD5, &info); err != nil {
			log.Warn().Err(err).Msg("写入抽取结果缓存失败")
		}
	}
	return info, nil
}

// ExtractDocument 同步解析文档并抽取，不落库
func (s *ExtractionService) ExtractDocument(ctx context.Context, filename, contentType string, data []byte) (types.ExtractedInfo, error) {
	ctx, span := tracer.Start(ctx, "ExtractionService.ExtractDocument", trace.WithAttributes(
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	text, err := s.loadDocument(ctx, filename, contentType, data)
	if err != nil {
		return types.ExtractedInfo{}, err
	}
	return s.ExtractText(ctx, text)
}

func (s *ExtractionService) loadDocument(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	span := trace.SpanFromContext(ctx)
	if len(data) == 0 {
		tracing.RecordError(span, ErrEmptyText, tracing.ErrorTypeValidation)
		return "", ErrEmptyText
	}
	text, err := s.loader.Load(ctx, filename, contentType, data)
	if err != nil {
		errType := tracing.ErrorTypeParse
		if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrUnsupportedFileType) {
			errType = tracing.ErrorTypeValidation
		}
		tracing.RecordError(span, err, errType)
		return "", err
	}
	return text, nil
}

// SubmitUpload 校验并登记一次上传。
// 配置了队列和对象存储时异步处理并返回 queued，否则当场抽取并返回结果。
// 相同文件再次上传时返回 ErrDuplicateUpload，可用 DuplicateResumeID 取出首次上传的ID。
func (s *ExtractionService) SubmitUpload(ctx context.Context, filename, contentType string, data []byte) (*UploadResult, error) {
	ctx, span := tracer.Start(ctx, "ExtractionService.SubmitUpload", trace.WithAttributes(
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
		attribute.Bool("async", s.Async()),
	))
	defer span.End()
	log := logger.Ctx(ctx)

	if len(data) == 0 {
		tracing.RecordError(span, ErrEmptyText, tracing.ErrorTypeValidation)
		return nil, ErrEmptyText
	}
	if err := s.loader.CheckUpload(filename, contentType, int64(len(data))); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	resumeID := id.String()
	span.SetAttributes(attribute.String("resume.id", resumeID))
	fileMD5 := utils.CalculateMD5(data)

	if s.dedup != nil {
		exists, existingID, err := s.dedup.CheckAndAddFileMD5(ctx, fileMD5, resumeID)
		if err != nil {
			// Redis 不可用时放行
			log.Warn().Err(err).Str("md5", fileMD5).Msg("检查文件MD5失败，跳过去重")
		} else if exists {
			log.Info().Str("md5", fileMD5).Str("existing_resume_id", existingID).Msg("检测到重复上传")
			span.SetAttributes(attribute.Bool("upload.duplicate", true))
			return nil, NewDuplicateError(existingID)
		}
	}

	var result *UploadResult
	if s.Async() {
		result, err = s.enqueueUpload(ctx, resumeID, filename, contentType, fileMD5, data)
	} else {
		result, err = s.processInline(ctx, resumeID, filename, contentType, fileMD5, data)
	}
	if err != nil {
		s.releaseMD5(ctx, fileMD5)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	log.Info().Str("resume_id", resumeID).Str("status", result.Status).Msg("简历上传已受理")
	return result, nil
}

func (s *ExtractionService) enqueueUpload(ctx context.Context, resumeID, filename, contentType, fileMD5 string, data []byte) (*UploadResult, error) {
	objectName, err := s.objects.UploadResume(ctx, resumeID, utils.FileExt(filename, ".bin"), data, contentType)
	if err != nil {
		return nil, NewStorageError("upload", resumeID, err)
	}

	if s.store != nil {
		if err := s.store.CreateResume(ctx, &models.Resume{
			ResumeID:            resumeID,
			OriginalFilename:    filename,
			ContentType:         contentType,
			OriginalFilePathOSS: objectName,
			FileMD5:             fileMD5,
			ProcessingStatus:    models.ResumeStatusQueued,
		}); err != nil {
			s.deleteObject(ctx, objectName)
			return nil, NewStorageError("create_resume", resumeID, err)
		}
	}

	msg := storage.ResumeUploadMessage{
		ResumeID:            resumeID,
		SubmissionTimestamp: time.Now(),
		OriginalFilename:    filename,
		ContentType:         contentType,
		OriginalFilePathOSS: objectName,
		RawFileMD5:          fileMD5,
	}
	if err := s.queue.PublishJSON(ctx, s.cfg.RabbitMQ.ResumeExchange, s.cfg.RabbitMQ.UploadedRoutingKey, msg, true); err != nil {
		s.deleteObject(ctx, objectName)
		s.markFailed(ctx, resumeID, err)
		return nil, newExtractionError("publish", resumeID, ErrPublishMessage, err.Error())
	}

	return &UploadResult{ResumeID: resumeID, Status: constants.StatusQueued}, nil
}

func (s *ExtractionService) processInline(ctx context.Context, resumeID, filename, contentType, fileMD5 string, data []byte) (*UploadResult, error) {
	var objectName string
	if s.objects != nil {
		name, err := s.objects.UploadResume(ctx, resumeID, utils.FileExt(filename, ".bin"), data, contentType)
		if err != nil {
			return nil, NewStorageError("upload", resumeID, err)
		}
		objectName = name
	}

	if s.store != nil {
		if err := s.store.CreateResume(ctx, &models.Resume{
			ResumeID:            resumeID,
			OriginalFilename:    filename,
			ContentType:         contentType,
			OriginalFilePathOSS: objectName,
			FileMD5:             fileMD5,
			ProcessingStatus:    models.ResumeStatusProcessing,
		}); err != nil {
			return nil, NewStorageError("create_resume", resumeID, err)
		}
	}

	info, err := s.ExtractDocument(ctx, filename, contentType, data)
	if err != nil {
		s.markFailed(ctx, resumeID, err)
		return nil, err
	}

	result := &UploadResult{ResumeID: resumeID, Status: constants.StatusProcessed, Info: &info}
	if s.store != nil {
		candidate, err := s.store.SaveCandidate(ctx, &info, resumeID)
		if err != nil {
			s.markFailed(ctx, resumeID, err)
			return nil, NewStorageError("save_candidate", resumeID, err)
		}
		result.CandidateID = candidate.CandidateID
	}
	return result, nil
}

// HandleUploadMessage 解码队列消息并处理；消息体损坏时返回不可重试的错误
func (s *ExtractionService) HandleUploadMessage(ctx context.Context, body []byte) error {
	var msg storage.ResumeUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return storage.NonRetryable(fmt.Errorf("%w: %w", ErrInvalidMessage, err))
	}
	if msg.ResumeID == "" || msg.OriginalFilePathOSS == "" {
		return storage.NonRetryable(fmt.Errorf("%w: 缺少 resume_id 或 original_file_path_oss", ErrInvalidMessage))
	}
	return s.ProcessUpload(ctx, msg)
}

// ProcessUpload 消费者路径：下载原文件、解析、保存解析文本、抽取并写入候选人档案。
// 解析或抽取失败不可重试；下载和数据库失败返回普通错误，由消费者重新入队。
func (s *ExtractionService) ProcessUpload(ctx context.Context, msg storage.ResumeUploadMessage) error {
	l := s.logger.With().Str("resume_id", msg.ResumeID).Logger()
	ctx = l.WithContext(ctx)

	ctx, span := tracer.Start(ctx, "ExtractionService.ProcessUpload",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("resume.id", msg.ResumeID),
			attribute.String("file.name", msg.OriginalFilename),
		))
	defer span.End()

	if s.objects == nil {
		tracing.RecordError(span, ErrStorageNotInit, tracing.ErrorTypeInternal)
		return ErrStorageNotInit
	}

	s.updateStatus(ctx, msg.ResumeID, models.ResumeStatusProcessing, "")

	data, err := s.objects.DownloadResume(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		l.Error().Err(err).Str("object", msg.OriginalFilePathOSS).Msg("从MinIO下载简历失败")
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return newExtractionError("download", msg.ResumeID, ErrResumeDownloadFail, err.Error())
	}
	span.AddEvent("file_downloaded", trace.WithAttributes(attribute.Int("file.size", len(data))))

	text, err := s.loadDocument(ctx, msg.OriginalFilename, msg.ContentType, data)
	if err != nil {
		l.Warn().Err(err).Msg("解析简历失败")
		s.markFailed(ctx, msg.ResumeID, err)
		// 释放去重记录，同一文件可以重新上传
		s.releaseMD5(ctx, msg.RawFileMD5)
		return storage.NonRetryable(newExtractionError("parse", msg.ResumeID, err, ""))
	}

	if objectName, err := s.objects.UploadParsedText(ctx, msg.ResumeID, text); err != nil {
		l.Warn().Err(err).Msg("保存解析文本失败")
	} else if s.store != nil {
		if err := s.store.SetParsedTextPath(ctx, msg.ResumeID, objectName); err != nil {
			l.Warn().Err(err).Msg("记录解析文本路径失败")
		}
	}

	info, err := s.ExtractText(ctx, text)
	if err != nil {
		s.markFailed(ctx, msg.ResumeID, err)
		return storage.NonRetryable(newExtractionError("extract", msg.ResumeID, err, ""))
	}

	if s.store == nil {
		l.Info().Msg("未配置数据库，抽取结果不落库")
		return nil
	}

	candidate, err := s.store.SaveCandidate(ctx, &info, msg.ResumeID)
	if err != nil {
		l.Error().Err(err).Msg("保存候选人失败")
		s.markFailed(ctx, msg.ResumeID, err)
		return NewStorageError("save_candidate", msg.ResumeID, err)
	}

	span.SetAttributes(attribute.String("candidate.id", candidate.CandidateID))
	l.Info().
		Str("candidate_id", candidate.CandidateID).
		Strs("missing_fields", info.MissingFields()).
		Msg("简历抽取完成")
	return nil
}

// GetCandidate 查询候选人档案
func (s *ExtractionService) GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error) {
	if s.store == nil {
		return nil, ErrStorageNotInit
	}
	c, err := s.store.GetCandidate(ctx, candidateID)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, NewStorageError("get_candidate", "", err)
	}
	return c, nil
}

// GetResume 查询简历处理状态，对象存储可用时附带原文件下载链接
func (s *ExtractionService) GetResume(ctx context.Context, resumeID string) (*ResumeView, error) {
	if s.store == nil {
		return nil, ErrStorageNotInit
	}
	r, err := s.store.GetResume(ctx, resumeID)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, NewStorageError("get_resume", resumeID, err)
	}

	view := &ResumeView{Resume: r}
	logger.Ctx(ctx).Debug().
		Str("resume_id", resumeID).
		Str("candidate_id", utils.StringValue(r.CandidateID)).
		Str("status", r.ProcessingStatus).
		Msg("查询简历")
	if s.objects != nil && r.OriginalFilePathOSS != "" {
		u, err := s.objects.PresignedResumeURL(ctx, r.OriginalFilePathOSS, presignExpiry)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("resume_id", resumeID).Msg("生成下载链接失败")
		} else {
			view.DownloadURL = u
		}
	}
	return view, nil
}

func (s *ExtractionService) updateStatus(ctx context.Context, resumeID, status, errMsg string) {
	if s.store == nil {
		return
	}
	if err := s.store.UpdateResumeStatus(ctx, resumeID, status, errMsg); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("resume_id", resumeID).Str("status", status).Msg("更新简历状态失败")
	}
}

func (s *ExtractionService) markFailed(ctx context.Context, resumeID string, cause error) {
	s.updateStatus(ctx, resumeID, models.ResumeStatusFailed, tracing.TruncateString(cause.Error(), maxStoredErrorLen))
}

func (s *ExtractionService) releaseMD5(ctx context.Context, fileMD5 string) {
	if s.dedup == nil || fileMD5 == "" {
		return
	}
	if err := s.dedup.RemoveFileMD5(ctx, fileMD5); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("md5", fileMD5).Msg("回滚文件MD5失败")
	}
}

func (s *ExtractionService) deleteObject(ctx context.Context, objectName string) {
	if err := s.objects.DeleteResume(ctx, objectName); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("object", objectName).Msg("回滚已上传的文件失败")
	}
}
