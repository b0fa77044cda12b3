package extractor

import (
	"regexp"
	"strings"
)

var summaryRules = []rule{
	// 带标题的摘要段，截到下一个章节标题或文末
	{
		pattern:  regexp.MustCompile(`(?i)(?:professional\s+summary|career\s+summary|summary|objective|profile)[\s:]*([\s\S]*?)(?:\n\s*(?:experience|education|skills|technical|projects)|\z)`),
		group:    1,
		validate: lengthBetween(50, 500),
	},
	// 第一段（到第一个空行）
	{
		pattern:  regexp.MustCompile(`\A([\s\S]*?)\n[ \t\r]*\n`),
		group:    1,
		validate: lengthBetween(50, 500),
	},
}

var validFallbackSummary = lengthBetween(50, 300)

// ExtractSummary 摘要；都不满足时退化为前三个非空行拼接
func ExtractSummary(text string) string {
	if s, ok := firstMatch(text, summaryRules); ok {
		return s
	}
	joined := collapseSpaces(strings.Join(nonEmptyLines(text, 3), " "))
	if validFallbackSummary(joined) {
		return joined
	}
	return ""
}
