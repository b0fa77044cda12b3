package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-extractor/storage/redis")

// checkAndAddMD5Script 原子地登记文件 MD5：
// 首次出现时写入集合与 md5->resume_id 映射，返回 {0, 新ID}；
// 已存在时返回 {1, 之前登记的ID}。
var checkAndAddMD5Script = redis.NewScript(`
local added = redis.call('SADD', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[3])
if added == 1 then
	redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
	return {0, ARGV[2]}
end
local existing = redis.call('GET', KEYS[2])
if not existing then
	existing = ''
end
return {1, existing}
`)

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// ResultTTL 抽取结果缓存时间
func (r *Redis) ResultTTL() time.Duration {
	if r.config.ResultTTLHours <= 0 {
		return constants.DefaultResultTTL
	}
	return time.Duration(r.config.ResultTTLHours) * time.Hour
}

func (r *Redis) startSpan(ctx context.Context, name, operation, key string) (context.Context, trace.Span) {
	return redisTracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.Int("db.redis.database_index", r.config.DB),
			attribute.String("net.peer.name", r.config.Address),
			attribute.String("db.operation", operation),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		))
}

// GetCachedResult 按文本 MD5 读取缓存的抽取结果，未命中时返回 ErrNotFound
func (r *Redis) GetCachedResult(ctx context.Context, textMD5 string) (*types.ExtractedInfo, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyExtractResult, textMD5)
	ctx, span := r.startSpan(ctx, "Redis.GetCachedResult", "GET", key)
	defer span.End()

	val, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("读取抽取结果缓存失败: %w", err)
	}

	var info types.ExtractedInfo
	if err := json.Unmarshal(val, &info); err != nil {
		// 缓存内容损坏时按未命中处理，由调用方重新抽取并覆盖
		span.SetAttributes(attribute.Bool("cache.corrupted", true))
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &info, nil
}

// SetCachedResult 缓存抽取结果
func (r *Redis) SetCachedResult(ctx context.Context, textMD5 string, info *types.ExtractedInfo) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyExtractResult, textMD5)
	ctx, span := r.startSpan(ctx, "Redis.SetCachedResult", "SET", key)
	defer span.End()

	data, err := json.Marshal(info)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return fmt.Errorf("序列化抽取结果失败: %w", err)
	}
	span.SetAttributes(attribute.Int("db.redis.value_length", len(data)))

	if err := r.Client.Set(ctx, key, data, r.ResultTTL()).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("写入抽取结果缓存失败: %w", err)
	}
	return nil
}

// CheckAndAddFileMD5 检查并登记上传文件的MD5，是一个原子操作。
// 返回 exists=true 时 existingID 为首次上传时分配的简历ID（映射过期后可能为空）。
func (r *Redis) CheckAndAddFileMD5(ctx context.Context, md5Hex, resumeID string) (exists bool, existingID string, err error) {
	ctx, span := r.startSpan(ctx, "Redis.CheckAndAddFileMD5", "EVALSHA", constants.KeyFileMD5Set)
	defer span.End()

	if r.Client == nil {
		err = fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}

	keys := []string{constants.KeyFileMD5Set, fmt.Sprintf(constants.KeyFileMD5ToResumeID, md5Hex)}
	expiry := int64(r.GetMD5ExpireDuration().Seconds())

	res, err := checkAndAddMD5Script.Run(ctx, r.Client, keys, md5Hex, resumeID, expiry).Slice()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}
	if len(res) != 2 {
		err = fmt.Errorf("意外的Redis返回长度: %d", len(res))
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}

	flag, ok := res[0].(int64)
	if !ok {
		err = fmt.Errorf("意外的Redis返回类型: %T", res[0])
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}
	id, _ := res[1].(string)

	exists = flag == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	if exists {
		return true, id, nil
	}
	return false, "", nil
}

// RemoveFileMD5 从集合中移除文件MD5及其映射，用于上传失败后的回滚
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	ctx, span := r.startSpan(ctx, "Redis.RemoveFileMD5", "SREM", constants.KeyFileMD5Set)
	defer span.End()

	pipe := r.Client.TxPipeline()
	removed := pipe.SRem(ctx, constants.KeyFileMD5Set, md5Hex)
	pipe.Del(ctx, fmt.Sprintf(constants.KeyFileMD5ToResumeID, md5Hex))
	if _, err := pipe.Exec(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("从集合中移除MD5失败: %w", err)
	}

	span.SetAttributes(attribute.Int64("removed_count", removed.Val()))
	return nil
}
