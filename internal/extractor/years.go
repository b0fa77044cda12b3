package extractor

import (
	"regexp"
	"strconv"
	"time"
)

var (
	explicitYearsRe = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s+(?:of\s+)?(?:experience|exp)`)
	dateRangeRe     = regexp.MustCompile(`(?i)(\d{4})\s*[-–]\s*(?:present|current|\d{4})`)
)

// YearsOfExperience 两类候选都参与比较（不短路），取最大值：
// 显式的 "N years of experience" 取 N；年份区间取 now.Year()-起始年。
// 只接受 (0, 50) 之间的候选，没有候选时返回 0。
func YearsOfExperience(text string, now time.Time) int {
	best := 0
	consider := func(v int) {
		if v > 0 && v < 50 && v > best {
			best = v
		}
	}

	for _, m := range explicitYearsRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			consider(n)
		}
	}

	currentYear := now.Year()
	for _, m := range dateRangeRe.FindAllStringSubmatch(text, -1) {
		if start, err := strconv.Atoi(m[1]); err == nil {
			consider(currentYear - start)
		}
	}
	return best
}
