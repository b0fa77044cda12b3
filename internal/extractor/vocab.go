package extractor

import (
	"regexp"
	"strings"
)

// 只读词表，进程内加载一次，不做修改

// placeholderDomains 占位邮箱域名，命中（含其子域名）即丢弃
var placeholderDomains = []string{"example.com", "test.com", "sample.com"}

// excludedNameWords 姓名中不允许出现的职位、级别、章节标题和学术用词（小写）
var excludedNameWords = toSet(
	"software", "developer", "engineer", "programmer", "designer", "manager", "analyst",
	"senior", "junior", "lead", "principal", "architect", "consultant", "specialist",
	"experience", "education", "skills", "summary", "objective", "profile", "resume",
	"curriculum", "vitae", "contact", "personal", "professional", "technical", "frontend",
	"backend", "fullstack", "full-stack", "web", "mobile", "application", "system",
	"admin", "administrator", "coordinator", "assistant", "intern", "trainee", "candidate",
	"applicant", "student", "graduate", "bachelor", "master", "university", "college",
)

// fallbackBannedSubstrings 姓名兜底阶段，整行包含这些子串时跳过
var fallbackBannedSubstrings = []string{
	"resume", "curriculum", "objective", "summary", "experience", "education", "skills",
}

// skillTerm 技能词条；label 取首个别名并大写首字母
type skillTerm struct {
	label   string
	matcher *regexp.Regexp
}

// skillVocabulary 技能词表，顺序即同一位置命中时的优先顺序
var skillVocabulary = buildSkillVocabulary(
	[]string{"javascript"},
	[]string{"typescript"},
	[]string{"react"},
	[]string{"angular"},
	[]string{"vue"},
	[]string{"node.js", "nodejs"},
	[]string{"python"},
	[]string{"java"},
	[]string{"c++"},
	[]string{"c#"},
	[]string{"sql"},
	[]string{"mongodb"},
	[]string{"mysql"},
	[]string{"postgresql"},
	[]string{"docker"},
	[]string{"kubernetes"},
	[]string{"aws"},
	[]string{"azure"},
	[]string{"gcp"},
	[]string{"git"},
	[]string{"html"},
	[]string{"css"},
	[]string{"express"},
	[]string{"graphql"},
	[]string{"rest api"},
	[]string{"microservices"},
	[]string{"redux"},
	[]string{"nextjs", "next.js"},
)

func buildSkillVocabulary(entries ...[]string) []skillTerm {
	terms := make([]skillTerm, 0, len(entries))
	for _, aliases := range entries {
		quoted := make([]string, len(aliases))
		for i, a := range aliases {
			quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(a), " ", `\s+`)
		}
		// 左右都不能紧贴字母数字，避免 java 命中 javascript、sql 命中 mysql
		pattern := `(?i)(?:^|[^a-z0-9])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9+#])`
		terms = append(terms, skillTerm{
			label:   capitalizeFirst(aliases[0]),
			matcher: regexp.MustCompile(pattern),
		})
	}
	return terms
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// hasExcludedWord 任一单词（小写后）在排除词表中即返回 true
func hasExcludedWord(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, ok := excludedNameWords[w]; ok {
			return true
		}
	}
	return false
}
