package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

// 两到三个首字母大写、至少三个字母的单词，单词之间只允许行内空白
const namePattern = `[A-Z][a-zA-Z]{2,}(?:[ \t]+[A-Z][a-zA-Z]{2,}){1,2}`

var (
	nameGrammarRe = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z][a-z]+){1,3}$`)

	fallbackLineRe   = regexp.MustCompile(`^[A-Z][a-zA-Z]+(?: [A-Z][a-zA-Z]+){1,2}$`)
	fallbackPrefixRe = regexp.MustCompile(`^([A-Z][a-zA-Z]{2,} [A-Z][a-zA-Z]{2,}(?: [A-Z][a-zA-Z]{2,})?) ?(?:$|\||,)`)
)

// 第一阶段规则，优先级从高到低
var nameRules = []rule{
	// Name: / Full Name: / Candidate Name:
	{
		pattern: regexp.MustCompile(`(?m)^[ \t]*(?i:name|full[ \t]*name|candidate[ \t]*name)[ \t]*:?[ \t]*([A-Z][a-zA-Z]+(?:[ \t]+[A-Z][a-zA-Z]+){1,3})[ \t\r]*$`),
		group:   1,
	},
	// 文档靠前位置独占一行的名字
	{
		pattern: regexp.MustCompile(`(?m)^[ \t]*(` + namePattern + `)[ \t\r]*$`),
		group:   1,
		scope:   firstLines(10),
	},
	// 文档开头（允许前导空行）
	{
		pattern: regexp.MustCompile(`\A\s*(` + namePattern + `)[ \t\r]*(?:\n|\z)`),
		group:   1,
	},
	// 联系方式/个人信息标题之后 100 个字符内
	{
		pattern: regexp.MustCompile(`(?i:contact[ \t]*(?:information|info)?|personal[ \t]*(?:information|info)?)[\s\S]{0,100}?(` + namePattern + `)`),
		group:   1,
	},
	// Resume of / CV for / Curriculum Vitae - xxx
	{
		pattern: regexp.MustCompile(`(?m)^[ \t]*(?i:resume|cv|curriculum[ \t]+vitae)[ \t]*(?i:of|for|[-:])[ \t]*([A-Z][a-zA-Z]+(?:[ \t]+[A-Z][a-zA-Z]+){1,2})`),
		group:   1,
	},
	// 紧挨在邮箱或电话之前
	{
		pattern: regexp.MustCompile(`(` + namePattern + `)[ \t]*\r?\n?[^\n]*?(?:@|(?i:phone|mobile|cell|tel))`),
		group:   1,
	},
	// 前三行中任意一行的行首
	{
		pattern: regexp.MustCompile(`(?m)^(` + namePattern + `)(?:[ \t]*\r?$|[ \t]+)`),
		group:   1,
		scope:   firstLines(3),
	},
}

func init() {
	for i := range nameRules {
		nameRules[i].validate = validName
	}
}

// ExtractName 两阶段识别姓名：先按规则优先级匹配，都失败时再扫描前 8 个非空行
func ExtractName(text string) (string, bool) {
	if name, ok := firstMatch(text, nameRules); ok {
		return name, true
	}
	return fallbackName(text)
}

// validName 第一阶段统一的校验
func validName(s string) bool {
	if n := len(s); n < 4 || n > 50 {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, r := range s {
		if r != ' ' && !unicode.IsLetter(r) {
			return false
		}
	}
	if !nameGrammarRe.MatchString(s) {
		return false
	}
	for _, w := range words {
		if len(w) < 2 {
			return false
		}
	}
	return !hasExcludedWord(s)
}

func fallbackName(text string) (string, bool) {
	for _, line := range nonEmptyLines(text, 8) {
		line = collapseSpaces(line)
		if acceptFallbackLine(line) {
			return line, true
		}
		if m := fallbackPrefixRe.FindStringSubmatch(line); m != nil && !hasExcludedWord(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

func acceptFallbackLine(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	if n := len(line); n < 4 || n > 40 {
		return false
	}
	if strings.IndexFunc(line, unicode.IsDigit) >= 0 || !fallbackLineRe.MatchString(line) {
		return false
	}
	if hasExcludedWord(line) {
		return false
	}
	lower := strings.ToLower(line)
	for _, banned := range fallbackBannedSubstrings {
		if strings.Contains(lower, banned) {
			return false
		}
	}
	return true
}
