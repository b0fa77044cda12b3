package extractor

import (
	"regexp"
	"sort"
)

const maxSkills = 20

// 技能候选区域：技能章节块（到下一个空行为止）以及正文中的技术名词
var skillRegionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:technical\s+skills?|skills?|technologies?|programming\s+languages?|tools?)[\s\S]*?(?:\n[ \t\r]*\n|\z)`),
	regexp.MustCompile(`(?i)\b(?:javascript|typescript|react\s+native|react|angular|vue|node\.?js|next\.?js|python|java|c\+\+|c#|sql|mongodb|mysql|postgresql|docker|kubernetes|aws|azure|gcp|git|html|css|sass|less|webpack|babel|jest|cypress|mocha|express|fastify|nestjs|graphql|rest\s+api|rest|microservices|redux|agile|scrum|devops|ci/cd|jenkins|github\s+actions?|gitlab\s+ci|terraform|ansible|redis|elasticsearch|kafka|rabbitmq|nginx|linux|bash|powershell|flutter|swift|kotlin|machine\s+learning|data\s+science|hadoop|spark|tableau|figma|bootstrap|tailwind)`),
}

// ExtractSkills 在候选区域内查找技能词表中的词条，按首次出现顺序去重，最多 20 个
func ExtractSkills(text string) []string {
	skills := make([]string, 0, maxSkills)
	seen := make(map[string]struct{}, maxSkills)

	for _, re := range skillRegionPatterns {
		for _, region := range re.FindAllString(text, -1) {
			for _, label := range skillsIn(region) {
				if _, ok := seen[label]; ok {
					continue
				}
				seen[label] = struct{}{}
				skills = append(skills, label)
				if len(skills) == maxSkills {
					return skills
				}
			}
		}
	}
	return skills
}

// skillsIn 返回区域内命中的词条，按在区域内的位置排序
func skillsIn(region string) []string {
	type hit struct {
		label string
		pos   int
	}
	var hits []hit
	for _, term := range skillVocabulary {
		if loc := term.matcher.FindStringIndex(region); loc != nil {
			hits = append(hits, hit{label: term.label, pos: loc[0]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	labels := make([]string, len(hits))
	for i, h := range hits {
		labels[i] = h.label
	}
	return labels
}
