// Package parser 把上传的简历文件（PDF / DOCX / HTML / 纯文本）转换为可供抽取的纯文本。
package parser

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-extractor/internal/logger"
)

var (
	// ErrUnsupportedFileType 文件类型不在白名单内
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrFileTooLarge 文件超过大小上限
	ErrFileTooLarge = errors.New("file too large")
	// ErrDocumentParse 文档无法解析
	ErrDocumentParse = errors.New("document parse failed")
)

// Format 文档格式
type Format string

const (
	FormatUnknown Format = ""
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatHTML    Format = "html"
	FormatText    Format = "text"
)

// DefaultMaxFileBytes 默认上传大小上限 10MB
const DefaultMaxFileBytes int64 = 10 * 1024 * 1024

// DefaultAllowedExtensions 默认允许的扩展名
var DefaultAllowedExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".html", ".htm"}

var extensionFormats = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".doc":  FormatDOCX, // 旧版 Word 也交给 docx 读取器，失败时报解析错误
	".html": FormatHTML,
	".htm":  FormatHTML,
	".txt":  FormatText,
	".text": FormatText,
	".md":   FormatText,
}

var mimeFormats = map[string]struct {
	format Format
	ext    string
}{
	"application/pdf": {FormatPDF, ".pdf"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {FormatDOCX, ".docx"},
	"application/msword": {FormatDOCX, ".doc"},
	"text/html":          {FormatHTML, ".html"},
	"text/plain":         {FormatText, ".txt"},
}

// DocumentLoader 文档加载器
type DocumentLoader struct {
	pdf      *EinoPDFTextExtractor
	allowed  map[string]struct{}
	maxBytes int64
	logger   zerolog.Logger
}

// LoaderOption DocumentLoader 配置选项
type LoaderOption func(*DocumentLoader)

// WithMaxFileBytes 设置文件大小上限，<=0 时使用默认值
func WithMaxFileBytes(n int64) LoaderOption {
	return func(l *DocumentLoader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithAllowedExtensions 设置扩展名白名单，空列表时保持默认
func WithAllowedExtensions(exts []string) LoaderOption {
	return func(l *DocumentLoader) {
		if len(exts) == 0 {
			return
		}
		l.allowed = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.allowed[ext] = struct{}{}
		}
	}
}

// WithLoaderLogger 设置日志
func WithLoaderLogger(l zerolog.Logger) LoaderOption {
	return func(d *DocumentLoader) {
		d.logger = l
	}
}

// NewDocumentLoader 创建文档加载器
func NewDocumentLoader(ctx context.Context, opts ...LoaderOption) (*DocumentLoader, error) {
	l := &DocumentLoader{
		maxBytes: DefaultMaxFileBytes,
		logger:   logger.Component("parser"),
	}
	WithAllowedExtensions(DefaultAllowedExtensions)(l)
	for _, opt := range opts {
		opt(l)
	}

	pdfExtractor, err := NewEinoPDFTextExtractor(ctx, WithEinoLogger(l.logger))
	if err != nil {
		return nil, err
	}
	l.pdf = pdfExtractor
	return l, nil
}

// MaxFileBytes 当前大小上限
func (l *DocumentLoader) MaxFileBytes() int64 {
	return l.maxBytes
}

// DetectFormat 优先按 MIME 类型判断，无法识别时回退到扩展名。
// 返回格式和用于白名单校验的扩展名。
func DetectFormat(filename, contentType string) (Format, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if m, ok := mimeFormats[strings.ToLower(mediaType)]; ok {
				if f, ok := extensionFormats[ext]; ok && f == m.format {
					return m.format, ext
				}
				if ext == "" {
					return m.format, m.ext
				}
				// MIME 与扩展名不一致时以 MIME 为准，扩展名仍按文件名做白名单校验
				return m.format, ext
			}
		}
	}
	if f, ok := extensionFormats[ext]; ok {
		return f, ext
	}
	return FormatUnknown, ext
}

// Supported 文件类型是否可以处理
func (l *DocumentLoader) Supported(filename, contentType string) bool {
	format, ext := DetectFormat(filename, contentType)
	if format == FormatUnknown {
		return false
	}
	_, ok := l.allowed[ext]
	return ok
}

// CheckUpload 上传前的大小和类型校验
func (l *DocumentLoader) CheckUpload(filename, contentType string, size int64) error {
	if size > l.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, size, l.maxBytes)
	}
	if !l.Supported(filename, contentType) {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, filename, contentType)
	}
	return nil
}

// Load 解析文档并返回归一化后的纯文本
func (l *DocumentLoader) Load(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := l.CheckUpload(filename, contentType, int64(len(data))); err != nil {
		return "", err
	}

	format, _ := DetectFormat(filename, contentType)
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, _, err = l.pdf.ExtractTextFromBytes(ctx, data, filename)
	case FormatDOCX:
		text, err = extractDocxText(data)
	case FormatHTML:
		text, err = extractHTMLText(data)
	case FormatText:
		text = string(data)
		if !utf8.ValidString(text) {
			l.logger.Warn().Str("filename", filename).Msg("文本不是合法的 UTF-8，已移除非法字节")
			text = strings.ToValidUTF8(text, "")
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDocumentParse, filename, err)
	}

	text = Normalize(text)
	l.logger.Debug().
		Str("filename", filename).
		Str("format", string(format)).
		Int("bytes", len(data)).
		Int("runes", RuneCount(text)).
		Msg("文档加载完成")
	return text, nil
}
