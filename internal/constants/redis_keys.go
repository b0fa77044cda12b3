package constants

import "time"

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ExtractModulePrefix 抽取模块
	ExtractModulePrefix = "extract"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityResult 抽取结果实体
	EntityResult = "result"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到简历ID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyExtractResult 抽取结果缓存 (STRING, JSON)
	// 格式: app:extract:result:{textMD5}
	KeyExtractResult = AppPrefix + ":" + ExtractModulePrefix + ":" + EntityResult + ":%s"

	// KeyFileMD5Set 上传文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToResumeID MD5到ResumeID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToResumeID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"
)

const (
	// DefaultResultTTL 抽取结果默认缓存时间
	DefaultResultTTL = 24 * time.Hour

	// EventCandidateExtracted 候选人抽取完成事件类型（outbox event_type）
	EventCandidateExtracted = "candidate.extracted"

	// StatusQueued 上传后等待抽取
	StatusQueued = "queued"
	// StatusProcessed 同步路径下已经完成抽取
	StatusProcessed = "processed"
)
