package parser

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize 统一抽取前的文本形态：
// NFKC 归一化（全角字符、不间断空格等），CRLF 转 LF，行内连续空白压缩为一个空格，
// 去掉行尾空白，连续空行最多保留一个。
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// TruncateRunes 按字符数截断，n <= 0 表示不限制
func TruncateRunes(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// RuneCount 文本字符数
func RuneCount(text string) int {
	return utf8.RuneCountInString(text)
}
