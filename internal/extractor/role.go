package extractor

import "regexp"

// jobTitleVocab 级别修饰词 + 职位名词
const jobTitleVocab = `(?:(?:senior|junior|lead|principal|staff)\s+)?(?:software\s+engineer|full\s*stack\s+developer|frontend\s+developer|backend\s+developer|web\s+developer|mobile\s+developer|developer|data\s+scientist|data\s+analyst|devops\s+engineer|system\s+administrator|product\s+manager|project\s+manager|ui/ux\s+designer|qa\s+engineer|test\s+engineer)`

var (
	jobTitleOnlyRe = regexp.MustCompile(`(?i)^` + jobTitleVocab + `$`)

	jobTitleRules = []rule{
		{pattern: regexp.MustCompile(`(?i)\b` + jobTitleVocab + `\b`)},
		// 行首以职位后缀结尾的大写词组
		{pattern: regexp.MustCompile(`(?m)^([A-Z][a-zA-Z \t]+(?:Engineer|Developer|Manager|Analyst|Architect|Consultant|Designer|Specialist))`), group: 1},
	}
)

// 公司名：连续的首字母大写单词（可含 & 和后缀）
const companyToken = `[A-Z][A-Za-z0-9&.'-]*(?:[ \t]+(?:&|[A-Z][A-Za-z0-9&.'-]*))*`

var companyRules = []rule{
	// currently at / working at / employed at
	{pattern: regexp.MustCompile(`(?i:(?:currently|working|employed)\s+at)\s+(` + companyToken + `)`), group: 1},
	// "at <公司>" 之后同一行 80 字符内出现 present/current
	{pattern: regexp.MustCompile(`(?i:\bat)[ \t]+(` + companyToken + `)[^\n]{0,80}?(?i:present|current)`), group: 1},
	// 行首公司名，同一行 80 字符内出现 present/current
	{pattern: regexp.MustCompile(`(?m)^[ \t]*(` + companyToken + `)[^\n]{0,80}?(?i:present|current)`), group: 1},
}

func init() {
	for i := range jobTitleRules {
		jobTitleRules[i].validate = lengthBetween(5, 50)
	}
	for i := range companyRules {
		companyRules[i].validate = validCompany
	}
}

// ExtractJobTitle 当前职位；未识别返回空串
func ExtractJobTitle(text string) string {
	title, _ := firstMatch(text, jobTitleRules)
	return title
}

// ExtractCompany 当前公司；未识别返回空串
func ExtractCompany(text string) string {
	company, _ := firstMatch(text, companyRules)
	return company
}

var validCompanyLength = lengthBetween(2, 50)

// validCompany 长度 2–50，且本身不是一个职位名称
func validCompany(s string) bool {
	return validCompanyLength(s) && !jobTitleOnlyRe.MatchString(s)
}
