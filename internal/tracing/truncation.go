package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxSQLLength SQL语句最大长度
	MaxSQLLength = 500

	// MaxRedisLength Redis键值最大长度
	MaxRedisLength = 100

	// MaxResumeLength 简历内容最大长度
	MaxResumeLength = 150
)

// 属性名包含这些关键字时值需要掩码
var piiKeywords = []string{
	"email", "phone", "mobile", "password", "address", "name",
	"secret", "token", "api_key", "姓名", "电话", "邮箱", "地址",
}

// SafeAttributeValue 确保属性值不包含敏感信息：
// 敏感字段返回掩码后的值，其余超过 maxLength 的值截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理。
// 邮箱保留本地部分前两位和完整域名，其余保留首尾字符。
//
//	"priya.raman@fastmail.com" -> "pr*********@fastmail.com"
//	"+1 (415) 555-0134"        -> "+1*************34"
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	if at := strings.LastIndexByte(value, '@'); at > 0 {
		local := []rune(value[:at])
		keep := 2
		if len(local) <= keep {
			keep = 1
		}
		return string(local[:keep]) + strings.Repeat("*", len(local)-keep) + value[at:]
	}

	runes := []rune(value)
	length := len(runes)
	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[0:1]) + "*"
	case length <= 4:
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	default:
		return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
	}
}

// TruncateString 截断字符串，保留前后部分，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL 安全处理SQL语句
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey 安全处理Redis键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeResumeContent 安全处理简历内容
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
