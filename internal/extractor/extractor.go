// Package extractor 是基于规则的简历信息抽取引擎。
//
// 每个字段由一组有序规则 {pattern, validator, normalizer} 组成，除工作/教育经历外均为
// "先命中者胜"。引擎是纯函数：不做 I/O，不持有可变状态，可被多个 goroutine 并发调用。
// 规则全部由 RE2 实现，匹配时间与输入长度线性相关；调用方仍应在进入引擎前限制文本长度。
package extractor

import (
	"strings"
	"time"

	"resume-extractor/internal/types"
)

// Engine 抽取引擎。零值不可用，请使用 New。
type Engine struct {
	now func() time.Time
}

// Option 配置 Engine
type Option func(*Engine)

// WithClock 指定计算工作年限使用的时钟，测试中用于固定当前年份
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New 创建引擎
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Extract 使用系统时钟的默认引擎
func Extract(text string) types.ExtractedInfo {
	return defaultEngine.Extract(text)
}

// Extract 对整段文本运行全部十个抽取器并组装结果。
// 空串或只含空白时直接返回规范空记录，不执行任何规则。
func (e *Engine) Extract(text string) types.ExtractedInfo {
	if strings.TrimSpace(text) == "" {
		return types.EmptyExtractedInfo()
	}

	info := types.ExtractedInfo{
		Text:              text,
		Skills:            ExtractSkills(text),
		Experience:        ExtractExperience(text),
		Education:         ExtractEducation(text),
		Summary:           ExtractSummary(text),
		JobTitle:          ExtractJobTitle(text),
		Company:           ExtractCompany(text),
		YearsOfExperience: YearsOfExperience(text, e.now()),
	}
	info.Name, _ = ExtractName(text)
	info.Email, _ = ExtractEmail(text)
	info.Phone, _ = ExtractPhone(text)
	return info
}
