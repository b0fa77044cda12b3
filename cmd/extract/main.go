// extract 离线抽取工具：读取一份简历文件（或标准输入中的纯文本），把抽取结果以 JSON 打印到标准输出。
//
//	extract [--pretty] [--now YYYY] <file|->
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"resume-extractor/internal/extractor"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/parser"
	"resume-extractor/internal/types"
)

func main() {
	var (
		pretty   bool
		nowYear  int
		maxBytes int64
		verbose  bool
	)
	pflag.BoolVar(&pretty, "pretty", false, "缩进输出 JSON")
	pflag.IntVar(&nowYear, "now", 0, "计算工作年限时使用的当前年份，0 表示系统时间")
	pflag.Int64Var(&maxBytes, "max-bytes", parser.DefaultMaxFileBytes, "文件大小上限")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [flags] <file|->\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Logger = logger.New(logger.Config{Level: level, Format: "pretty"}, os.Stderr)
	log := logger.Component("extract")

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	var opts []extractor.Option
	if nowYear > 0 {
		opts = append(opts, extractor.WithClock(func() time.Time {
			return time.Date(nowYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		}))
	}
	engine := extractor.New(opts...)

	text, err := readInput(context.Background(), pflag.Arg(0), maxBytes, log)
	if err != nil {
		log.Error().Err(err).Msg("读取输入失败")
		os.Exit(1)
	}

	info := engine.Extract(text)
	if err := writeJSON(os.Stdout, info, pretty); err != nil {
		log.Error().Err(err).Msg("输出结果失败")
		os.Exit(1)
	}
}

// readInput "-" 表示从标准输入读取纯文本，其余按文件扩展名交给 DocumentLoader
func readInput(ctx context.Context, arg string, maxBytes int64, log zerolog.Logger) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
		if err != nil {
			return "", err
		}
		if int64(len(data)) > maxBytes {
			return "", fmt.Errorf("%w: stdin", parser.ErrFileTooLarge)
		}
		return parser.Normalize(string(data)), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	loader, err := parser.NewDocumentLoader(ctx,
		parser.WithMaxFileBytes(maxBytes),
		parser.WithLoaderLogger(log),
	)
	if err != nil {
		return "", err
	}
	return loader.Load(ctx, filepath.Base(arg), "", data)
}

func writeJSON(w io.Writer, info types.ExtractedInfo, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(info)
}
