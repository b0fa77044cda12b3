package extractor

import (
	"regexp"
	"strings"
)

// 电话号码规则族，按优先级排列
var phoneRules = []rule{
	// 美国格式，可带 +1
	{pattern: regexp.MustCompile(`\b(?:\+?1[-\s.]?)?\(?([0-9]{3})\)?[-\s.]?([0-9]{3})[-\s.]?([0-9]{4})\b`)},
	// 通用国际格式
	{pattern: regexp.MustCompile(`\b(?:\+?[1-9]\d{0,3}[-\s.]?)?\(?([0-9]{2,4})\)?[-\s.]?([0-9]{3,4})[-\s.]?([0-9]{3,4})\b`)},
	// 印度 10 位号码，可带 +91
	{pattern: regexp.MustCompile(`\b(?:\+?91[-\s.]?)?([0-9]{10})\b`)},
	// 带标签的字段
	{pattern: regexp.MustCompile(`(?i)(?:phone|mobile|cell|tel|contact|number)[:\s]*([+]?[0-9\s().-]{10,15})`), group: 1},
	// 3-3-4 数字分组
	{pattern: regexp.MustCompile(`\b([0-9]{3}[-\s.]?[0-9]{3}[-\s.]?[0-9]{4})\b`), group: 1},
	// 10–15 位连续数字
	{pattern: regexp.MustCompile(`\b([0-9]{10,15})\b`), group: 1},
}

var usNumberRe = regexp.MustCompile(`^[2-9]\d{9}$`)

func init() {
	for i := range phoneRules {
		phoneRules[i].normalize = normalizePhone
		phoneRules[i].validate = validPhone
	}
}

// ExtractPhone 返回第一个合法号码，并按美国号码习惯格式化
func ExtractPhone(text string) (string, bool) {
	phone, ok := firstMatch(text, phoneRules)
	if !ok {
		return "", false
	}
	return formatPhone(phone), true
}

// normalizePhone 只保留数字和开头的 '+'；'+' 出现在其他位置时全部去掉
func normalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.LastIndexByte(cleaned, '+') > 0 {
		cleaned = strings.ReplaceAll(cleaned, "+", "")
	}
	return cleaned
}

func validPhone(s string) bool {
	n := len(strings.TrimPrefix(s, "+"))
	return n >= 10 && n <= 15
}

// formatPhone
//   - 10 位且区号首位为 2–9 → (NNN) NNN-NNNN
//   - 11 位且以 1 开头 → +1 (NNN) NNN-NNNN
//   - 其他保持规范化后的数字串
func formatPhone(s string) string {
	digits := strings.TrimPrefix(s, "+")
	switch {
	case len(digits) == 10 && usNumberRe.MatchString(digits):
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11 && digits[0] == '1':
		us := digits[1:]
		return "+1 (" + us[:3] + ") " + us[3:6] + "-" + us[6:]
	default:
		return s
	}
}
