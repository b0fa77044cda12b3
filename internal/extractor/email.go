package extractor

import (
	"regexp"
	"strings"
)

const addrPattern = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`

var strictEmailRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._%+-]*@[a-z0-9][a-z0-9.-]*\.[a-z]{2,}$`)

var emailRules = []rule{
	// 带标签：Email: / E-mail: / Contact: 后面紧跟地址
	{
		pattern: regexp.MustCompile(`(?i)(?:e-mail|email|mail|contact)[:\s]*(` + addrPattern + `)`),
		group:   1,
	},
	// 联系方式段落标题后 50 个字符内出现的地址
	{
		pattern: regexp.MustCompile(`(?i)(?:contact|reach|correspondence)[\s\S]{0,50}?(` + addrPattern + `)`),
		group:   1,
	},
	// 文中任意位置的裸地址
	{
		pattern: regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9._%+-]*@[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}\b`),
	},
}

func init() {
	for i := range emailRules {
		emailRules[i].normalize = normalizeEmail
		emailRules[i].validate = validEmail
	}
}

// ExtractEmail 返回第一个合法且非占位域名的邮箱（小写）；未找到返回 false
func ExtractEmail(text string) (string, bool) {
	return firstMatch(text, emailRules)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	if !strictEmailRe.MatchString(s) {
		return false
	}
	domain := s[strings.LastIndexByte(s, '@')+1:]
	for _, blocked := range placeholderDomains {
		if domain == blocked || strings.HasSuffix(domain, "."+blocked) {
			return false
		}
	}
	return true
}
