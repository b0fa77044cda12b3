package storage

import "time"

// ResumeUploadMessage 简历上传消息，消费者据此下载原文件并执行抽取
type ResumeUploadMessage struct {
	ResumeID            string    `json:"resume_id"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	OriginalFilename    string    `json:"original_filename"`
	ContentType         string    `json:"content_type,omitempty"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"` // MinIO中的对象路径
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 原始文件的MD5，用于失败时回滚
}

// CandidateExtractedMessage 候选人档案生成/更新事件，经 outbox 投递
type CandidateExtractedMessage struct {
	CandidateID       string    `json:"candidate_id"`
	ResumeID          string    `json:"resume_id"`
	Name              string    `json:"name,omitempty"`
	JobTitle          string    `json:"job_title,omitempty"`
	Company           string    `json:"company,omitempty"`
	Skills            []string  `json:"skills"`
	YearsOfExperience int       `json:"years_of_experience"`
	MissingFields     []string  `json:"missing_fields,omitempty"` // 需要人工补充的身份字段
	IsNewCandidate    bool      `json:"is_new_candidate"`
	ExtractedAt       time.Time `json:"extracted_at"`
}
