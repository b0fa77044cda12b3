package models

import (
	"resume-extractor/internal/types"
)

// BuildCandidate 把一次抽取结果合并进候选人档案。
// existing 为 nil 时视为新建；ID 与 CreatedAt 始终沿用 existing。
// 非空的标量字段覆盖旧值，空值保留旧值；列表只有在新结果非空时才整体替换。
func BuildCandidate(existing *Candidate, info *types.ExtractedInfo, resumeID string) *Candidate {
	var c Candidate
	if existing != nil {
		c = *existing
	}
	if info == nil {
		return &c
	}

	overwrite := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overwrite(&c.Name, info.Name)
	overwrite(&c.Email, info.Email)
	overwrite(&c.Phone, info.Phone)
	overwrite(&c.Summary, info.Summary)
	overwrite(&c.JobTitle, info.JobTitle)
	overwrite(&c.Company, info.Company)
	overwrite(&c.ResumeText, info.Text)
	overwrite(&c.SourceResumeID, resumeID)

	if info.YearsOfExperience > 0 {
		c.YearsOfExperience = info.YearsOfExperience
	}
	if len(info.Skills) > 0 {
		c.Skills = StringsToJSON(info.Skills)
	}
	if len(info.Experience) > 0 {
		c.Experience = StringsToJSON(info.Experience)
	}
	if len(info.Education) > 0 {
		c.Education = StringsToJSON(info.Education)
	}

	// 新档案的 JSON 列也保证是合法的数组
	if len(c.Skills) == 0 {
		c.Skills = StringsToJSON(nil)
	}
	if len(c.Experience) == 0 {
		c.Experience = StringsToJSON(nil)
	}
	if len(c.Education) == 0 {
		c.Education = StringsToJSON(nil)
	}
	return &c
}
