package types

// ExtractedInfo 是抽取引擎对一段简历文本的结构化输出。
// Name/Email/Phone 为空串表示未识别；列表字段始终非 nil。
type ExtractedInfo struct {
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Text              string   `json:"text"`
	Skills            []string `json:"skills"`            // ≤20，按首次出现排序
	Experience        []string `json:"experience"`        // ≤5，每条 20–200 字符
	Education         []string `json:"education"`         // ≤3，每条 10–150 字符
	Summary           string   `json:"summary"`           // 空或 50–500 字符
	JobTitle          string   `json:"jobTitle"`          // 空或 5–50 字符
	Company           string   `json:"company"`           // 空或 2–50 字符
	YearsOfExperience int      `json:"yearsOfExperience"` // [0, 49]
}

// EmptyExtractedInfo 返回空输入对应的规范空记录
func EmptyExtractedInfo() ExtractedInfo {
	return ExtractedInfo{
		Skills:     []string{},
		Experience: []string{},
		Education:  []string{},
	}
}

// HasContact 是否至少识别出一种联系方式
func (e ExtractedInfo) HasContact() bool {
	return e.Email != "" || e.Phone != ""
}

// MissingFields 返回下游需要向用户补充采集的身份字段
func (e ExtractedInfo) MissingFields() []string {
	missing := make([]string, 0, 3)
	if e.Name == "" {
		missing = append(missing, "name")
	}
	if e.Email == "" {
		missing = append(missing, "email")
	}
	if e.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// PromptContext 供下游出题/提示词构造服务使用的精简视图
type PromptContext struct {
	Skills            []string `json:"skills"`
	Experience        []string `json:"experience"`
	Education         []string `json:"education"`
	JobTitle          string   `json:"jobTitle"`
	Summary           string   `json:"summary"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	ResumeExcerpt     string   `json:"resumeExcerpt"`
}
