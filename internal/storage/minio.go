package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/tracing"
)

var minioTracer = otel.Tracer("resume-extractor/storage/minio")

// MinIO 对象存储：原始简历和抽取后的纯文本分别放在两个存储桶
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	parsedBucket   string
	logger         zerolog.Logger
}

// NewMinIO 创建 MinIO 客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	log := logger.Component("minio")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: cfg.OriginalsBucket,
		parsedBucket:   cfg.ParsedTextBucket,
		logger:         log,
	}

	for _, bucket := range []string{m.originalBucket, m.parsedBucket} {
		if err := m.EnsureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}

	if cfg.OriginalFileExpireDays > 0 || cfg.ParsedTextExpireDays > 0 {
		if err := m.setupLifecycleRules(ctx); err != nil {
			log.Warn().Err(err).Msg("设置存储桶生命周期失败")
		}
	}

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Str("original_bucket", m.originalBucket).
		Str("parsed_bucket", m.parsedBucket).
		Msg("MinIO客户端初始化成功")
	return m, nil
}

// EnsureBucket 存储桶不存在时创建
func (m *MinIO) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalBucket, "expire-originals", m.cfg.OriginalFileExpireDays); err != nil {
			return fmt.Errorf("为原始文件存储桶 %s 设置生命周期失败: %w", m.originalBucket, err)
		}
	}
	if m.cfg.ParsedTextExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.parsedBucket, "expire-parsed-text", m.cfg.ParsedTextExpireDays); err != nil {
			return fmt.Errorf("为解析文本存储桶 %s 设置生命周期失败: %w", m.parsedBucket, err)
		}
	}
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// ResumeObjectName 原始简历对象路径
func ResumeObjectName(resumeID, fileExt string) string {
	return fmt.Sprintf("resumes/%s%s", resumeID, strings.ToLower(fileExt))
}

// ParsedTextObjectName 抽取文本对象路径
func ParsedTextObjectName(resumeID string) string {
	return fmt.Sprintf("parsed/%s.txt", resumeID)
}

func (m *MinIO) startSpan(ctx context.Context, name, bucket, object string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.system", "minio"),
			attribute.String("storage.bucket", bucket),
			attribute.String("storage.object", object),
		))
}

// UploadResume 上传原始简历，返回对象路径
func (m *MinIO) UploadResume(ctx context.Context, resumeID, fileExt string, data []byte, contentType string) (string, error) {
	objectName := ResumeObjectName(resumeID, fileExt)
	ctx, span := m.startSpan(ctx, "MinIO.UploadResume", m.originalBucket, objectName)
	defer span.End()

	if contentType == "" {
		contentType = getContentType(fileExt)
	}
	_, err := m.client.PutObject(ctx, m.originalBucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.originalBucket, objectName, err)
	}
	span.SetAttributes(attribute.Int("storage.size", len(data)))
	return objectName, nil
}

// DownloadResume 下载原始简历
func (m *MinIO) DownloadResume(ctx context.Context, objectName string) ([]byte, error) {
	ctx, span := m.startSpan(ctx, "MinIO.DownloadResume", m.originalBucket, objectName)
	defer span.End()

	data, err := m.getObject(ctx, m.originalBucket, objectName)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return nil, err
	}
	return data, nil
}

// UploadParsedText 保存抽取前的归一化文本，返回对象路径
func (m *MinIO) UploadParsedText(ctx context.Context, resumeID, text string) (string, error) {
	objectName := ParsedTextObjectName(resumeID)
	ctx, span := m.startSpan(ctx, "MinIO.UploadParsedText", m.parsedBucket, objectName)
	defer span.End()

	_, err := m.client.PutObject(ctx, m.parsedBucket, objectName, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return "", fmt.Errorf("上传解析文本 %s 到存储桶 %s 失败: %w", objectName, m.parsedBucket, err)
	}
	return objectName, nil
}

// GetParsedText 读取抽取文本
func (m *MinIO) GetParsedText(ctx context.Context, objectName string) (string, error) {
	ctx, span := m.startSpan(ctx, "MinIO.GetParsedText", m.parsedBucket, objectName)
	defer span.End()

	data, err := m.getObject(ctx, m.parsedBucket, objectName)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return "", err
	}
	return string(data), nil
}

// DeleteResume 删除原始简历，用于发布失败后的回滚
func (m *MinIO) DeleteResume(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.originalBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s/%s 失败: %w", m.originalBucket, objectName, err)
	}
	return nil
}

// PresignedResumeURL 生成原始简历的临时下载链接
func (m *MinIO) PresignedResumeURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.originalBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

func (m *MinIO) getObject(ctx context.Context, bucket, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucket, objectName, err)
	}
	return data, nil
}

// getContentType 根据文件扩展名推断 Content-Type
func getContentType(fileExt string) string {
	switch strings.ToLower(fileExt) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(fileExt); t != "" {
		return t
	}
	return "application/octet-stream"
}
