package extractor

import "regexp"

const (
	maxExperience = 5
	maxEducation  = 3
)

// companySuffix 常见公司后缀
const companySuffix = `(?:Inc|LLC|Corp|Company|Technologies|Solutions|Systems|Software|Consulting)`

// 工作经历：章节块、公司+起止年份、职位 at 公司。三类结果合并，不短路。
var experienceRules = []rule{
	{pattern: regexp.MustCompile(`(?i)(?:work\s+experience|professional\s+experience|employment\s+history|career\s+summary)[\s\S]*?(?:\n\s*education|\n\s*skills|\n\s*projects|\z)`)},
	{pattern: regexp.MustCompile(`(?i)[A-Z][a-zA-Z\s&]+` + companySuffix + `?[\s\S]*?\d{4}\s*[-–]\s*(?:\d{4}|present|current)`)},
	{pattern: regexp.MustCompile(`(?i)(?:(?:senior|junior|lead|principal|staff)\s+)?(?:software\s+engineer|developer|programmer|architect|analyst|manager|director|consultant|specialist)[\s\S]*?\bat\s+[A-Z][a-zA-Z\s&]+`)},
}

// 教育经历：章节块、学位…院校…年份、院校…学位/专业
var educationRules = []rule{
	{pattern: regexp.MustCompile(`(?i)(?:education|academic\s+background|qualifications)[\s\S]*?(?:\n\s*experience|\n\s*skills|\n\s*projects|\z)`)},
	{pattern: regexp.MustCompile(`(?i)(?:bachelor|master|phd|doctorate|associate|diploma|certificate)[\s\S]*?(?:university|college|institute|school)[\s\S]*?\d{4}`)},
	{pattern: regexp.MustCompile(`(?i)[A-Z][a-zA-Z\s]+(?:university|college|institute|school)[\s\S]*?(?:bachelor|master|phd|computer\s+science|engineering|mathematics|physics|chemistry|business)`)},
}

func init() {
	for i := range experienceRules {
		experienceRules[i].validate = lengthBetween(20, 200)
	}
	for i := range educationRules {
		educationRules[i].validate = lengthBetween(10, 150)
	}
}

// ExtractExperience 返回最多 5 条工作经历片段（20–200 字符）
func ExtractExperience(text string) []string {
	return collectAll(text, experienceRules, maxExperience)
}

// ExtractEducation 返回最多 3 条教育经历片段（10–150 字符）
func ExtractEducation(text string) []string {
	return collectAll(text, educationRules, maxEducation)
}
