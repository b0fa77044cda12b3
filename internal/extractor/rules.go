package extractor

import (
	"regexp"
	"strings"
)

// rule 是一条抽取规则：在文本（或其某个范围）上匹配 pattern，取 group 捕获组，
// 依次经过空白折叠、normalize、validate。
type rule struct {
	pattern   *regexp.Regexp
	group     int                 // 0 表示整个匹配
	scope     func(string) string // 为空时在全文上匹配
	normalize func(string) string
	validate  func(string) bool
}

// each 按匹配顺序把候选值交给 fn，fn 返回 true 时停止
func (r rule) each(text string, fn func(string) bool) bool {
	src := text
	if r.scope != nil {
		src = r.scope(text)
	}
	lo, hi := 2*r.group, 2*r.group+1
	for _, m := range r.pattern.FindAllStringSubmatchIndex(src, -1) {
		if hi >= len(m) || m[lo] < 0 {
			continue
		}
		candidate := collapseSpaces(src[m[lo]:m[hi]])
		if r.normalize != nil {
			candidate = r.normalize(candidate)
		}
		if candidate == "" {
			continue
		}
		if r.validate != nil && !r.validate(candidate) {
			continue
		}
		if fn(candidate) {
			return true
		}
	}
	return false
}

// firstMatch 按规则顺序返回第一个通过校验的候选值。
// 靠前的规则族一旦命中，后面的规则不会再执行。
func firstMatch(text string, rules []rule) (string, bool) {
	var found string
	for _, r := range rules {
		if r.each(text, func(c string) bool {
			found = c
			return true
		}) {
			return found, true
		}
	}
	return "", false
}

// collectAll 汇总所有规则族的候选值（不短路），去重后按出现顺序截取前 limit 个
func collectAll(text string, rules []rule, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, r := range rules {
		done := r.each(text, func(c string) bool {
			if _, ok := seen[c]; ok {
				return false
			}
			seen[c] = struct{}{}
			out = append(out, c)
			return len(out) >= limit
		})
		if done {
			break
		}
	}
	return out
}

// collapseSpaces 把任意空白串折叠为单个空格并去掉首尾空白
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lengthBetween 按字符数（rune）判断长度是否落在 [min, max]
func lengthBetween(min, max int) func(string) bool {
	return func(s string) bool {
		n := len([]rune(s))
		return n >= min && n <= max
	}
}

// firstLines 返回只保留前 n 行的 scope 函数
func firstLines(n int) func(string) string {
	return func(text string) string {
		idx := 0
		for i := 0; i < n; i++ {
			next := strings.IndexByte(text[idx:], '\n')
			if next < 0 {
				return text
			}
			idx += next + 1
		}
		return text[:idx]
	}
}

// nonEmptyLines 返回前 n 个去除首尾空白后非空的行
func nonEmptyLines(text string, n int) []string {
	lines := make([]string, 0, n)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}
