package processor

import (
	"github.com/rs/zerolog"

	"resume-extractor/internal/extractor"
	"resume-extractor/internal/storage"
)

// Option 配置 ExtractionService 的可选组件
type Option func(*ExtractionService)

// WithEngine 替换抽取引擎，测试中用于固定时钟
func WithEngine(e *extractor.Engine) Option {
	return func(s *ExtractionService) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithResultCache 启用抽取结果缓存
func WithResultCache(c ResultCache) Option {
	return func(s *ExtractionService) { s.cache = c }
}

// WithDeduplicator 启用上传去重
func WithDeduplicator(d UploadDeduplicator) Option {
	return func(s *ExtractionService) { s.dedup = d }
}

// WithProfileStore 启用候选人持久化
func WithProfileStore(p ProfileStore) Option {
	return func(s *ExtractionService) { s.store = p }
}

// WithObjectStorage 启用原始文件存储
func WithObjectStorage(o ObjectStorage) Option {
	return func(s *ExtractionService) { s.objects = o }
}

// WithMessageQueue 启用异步处理
func WithMessageQueue(q MessageQueue) Option {
	return func(s *ExtractionService) { s.queue = q }
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(s *ExtractionService) { s.logger = l }
}

// FromStorage 把已初始化的存储组件转换成选项。
// 只传入非 nil 的指针，避免接口持有 nil 指针。
func FromStorage(st *storage.Storage) []Option {
	if st == nil {
		return nil
	}
	var opts []Option
	if st.Redis != nil {
		opts = append(opts, WithResultCache(st.Redis), WithDeduplicator(st.Redis))
	}
	if st.MySQL != nil {
		opts = append(opts, WithProfileStore(st.MySQL))
	}
	if st.MinIO != nil {
		opts = append(opts, WithObjectStorage(st.MinIO))
	}
	if st.RabbitMQ != nil {
		opts = append(opts, WithMessageQueue(st.RabbitMQ))
	}
	return opts
}
