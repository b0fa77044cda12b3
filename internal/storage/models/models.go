package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 简历处理状态
const (
	ResumeStatusQueued     = "QUEUED"
	ResumeStatusProcessing = "PROCESSING"
	ResumeStatusExtracted  = "EXTRACTED"
	ResumeStatusFailed     = "FAILED"
)

// Candidate 候选人档案，由一次或多次简历抽取合并而来
type Candidate struct {
	CandidateID       string         `gorm:"type:char(36);primaryKey" json:"candidate_id"`
	Name              string         `gorm:"type:varchar(255)" json:"name"`
	Email             string         `gorm:"type:varchar(255);index:idx_candidates_email" json:"email,omitempty"`
	Phone             string         `gorm:"type:varchar(50);index:idx_candidates_phone" json:"phone,omitempty"`
	Summary           string         `gorm:"type:text" json:"summary"`
	JobTitle          string         `gorm:"type:varchar(100)" json:"job_title"`
	Company           string         `gorm:"type:varchar(100)" json:"company"`
	YearsOfExperience int            `gorm:"default:0" json:"years_of_experience"`
	Skills            datatypes.JSON `gorm:"type:json" json:"skills"`     // string[]
	Experience        datatypes.JSON `gorm:"type:json" json:"experience"` // string[]
	Education         datatypes.JSON `gorm:"type:json" json:"education"`  // string[]
	ResumeText        string         `gorm:"type:mediumtext" json:"-"`
	SourceResumeID    string         `gorm:"type:char(36);index:idx_candidates_source_resume" json:"source_resume_id"`
	CreatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// SkillList 解码技能列表，字段为空或损坏时返回空切片
func (c *Candidate) SkillList() []string { return JSONToStrings(c.Skills) }

// ExperienceList 解码工作经历列表
func (c *Candidate) ExperienceList() []string { return JSONToStrings(c.Experience) }

// EducationList 解码教育经历列表
func (c *Candidate) EducationList() []string { return JSONToStrings(c.Education) }

// Resume 一次简历上传及其处理状态
type Resume struct {
	ResumeID            string    `gorm:"type:char(36);primaryKey" json:"resume_id"`
	CandidateID         *string   `gorm:"type:char(36);index:idx_resumes_candidate_id" json:"candidate_id,omitempty"`
	OriginalFilename    string    `gorm:"type:varchar(255)" json:"original_filename"`
	ContentType         string    `gorm:"type:varchar(255)" json:"content_type"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)" json:"-"`
	ParsedTextPathOSS   string    `gorm:"type:varchar(1024)" json:"-"`
	FileMD5             string    `gorm:"type:char(32);index:idx_resumes_file_md5" json:"file_md5"`
	ProcessingStatus    string    `gorm:"type:varchar(50);default:'QUEUED';index:idx_resumes_status" json:"status"`
	ErrorMessage        string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (Resume) TableName() string {
	return "resumes"
}

// StringsToJSON 把字符串列表编码为 JSON 列，nil 编码为 []
func StringsToJSON(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return b
}

// JSONToStrings 解码 JSON 列为字符串列表
func JSONToStrings(data datatypes.JSON) []string {
	out := []string{}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
