package processor

import (
	"context"

	"resume-extractor/internal/parser"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/types"
)

// PromptExcerptRunes 提示词上下文中简历原文的最大长度
const PromptExcerptRunes = 4000

// BuildPromptContext 把抽取结果投影成下游出题服务需要的精简视图。
// 下游只依赖字段存在，列表为空时输出空数组。
func BuildPromptContext(info types.ExtractedInfo) types.PromptContext {
	return types.PromptContext{
		Skills:            nonNil(info.Skills),
		Experience:        nonNil(info.Experience),
		Education:         nonNil(info.Education),
		JobTitle:          info.JobTitle,
		Summary:           info.Summary,
		YearsOfExperience: info.YearsOfExperience,
		ResumeExcerpt:     parser.TruncateRunes(info.Text, PromptExcerptRunes),
	}
}

// GetPromptContext 基于已保存的候选人档案构造提示词上下文
func (s *ExtractionService) GetPromptContext(ctx context.Context, candidateID string) (types.PromptContext, error) {
	c, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return types.PromptContext{}, err
	}
	return BuildPromptContext(candidateInfo(c)), nil
}

// candidateInfo 把候选人档案还原成抽取结果的形状
func candidateInfo(c *models.Candidate) types.ExtractedInfo {
	return types.ExtractedInfo{
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Text:              c.ResumeText,
		Skills:            c.SkillList(),
		Experience:        c.ExperienceList(),
		Education:         c.EducationList(),
		Summary:           c.Summary,
		JobTitle:          c.JobTitle,
		Company:           c.Company,
		YearsOfExperience: c.YearsOfExperience,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
