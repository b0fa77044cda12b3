package logger // 服务级日志组件，统一封装 zerolog

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例；Init 之前为 zerolog 的默认 logger
var Logger = log.Logger

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`                 // debug / info / warn / error
	Format       string `json:"format" yaml:"format"`               // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`     // 时间戳格式，空则 RFC3339
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"` // 是否输出调用位置
	Output       string `json:"output" yaml:"output"`               // stdout（默认）或 stderr
}

// Init 根据配置重建全局 logger，同时替换 zerolog/log 的全局实例
func Init(config Config) {
	Logger = New(config, nil)
	log.Logger = Logger
}

// New 按配置构造 logger，不修改全局状态。w 为 nil 时按 Output 选择标准输出或标准错误。
func New(config Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if w == nil {
		w = os.Stdout
		if strings.EqualFold(config.Output, "stderr") {
			w = os.Stderr
		}
	}

	timeFormat := config.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	out := w
	if config.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if config.ReportCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Component 返回带 component 字段的子 logger，用于区分 storage / processor / api 等模块
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

// Fatal 记录后进程退出
func Fatal() *zerolog.Event { return Logger.Fatal() }

// Ctx 取出上下文里的 logger；上下文中没有时返回全局 logger
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext 把全局 logger 放进上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// WithRequestID 把带 request_id 字段的 logger 放进上下文
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Logger.With().Str("request_id", requestID).Logger()
	return l.WithContext(ctx)
}
