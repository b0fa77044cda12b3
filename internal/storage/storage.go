package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"
)

// Storage 存储管理器，聚合所有外部依赖；未配置或初始化失败的组件为 nil
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 创建存储管理器。
// 单个组件失败只记录警告；全部失败时返回错误。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	log := logger.Component("storage")

	storage := &Storage{}
	var err error
	var initErrors []string

	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else if err = storage.declareTopology(&cfg.RabbitMQ); err != nil {
			log.Warn().Err(err).Msg("声明RabbitMQ拓扑失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ topology: %v", err))
		}
	}

	if cfg.MySQL.Host != "" {
		storage.MySQL, err = NewMySQL(&cfg.MySQL, OutboxTarget{
			Exchange:   cfg.RabbitMQ.ResumeExchange,
			RoutingKey: cfg.RabbitMQ.ExtractedRoutingKey,
		})
		if err != nil {
			log.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		log.Info().Msg("Redis未配置，跳过初始化")
	}

	if storage.MinIO == nil && storage.RabbitMQ == nil && storage.MySQL == nil && storage.Redis == nil {
		if len(initErrors) == 0 {
			return nil, errors.New("没有配置任何存储组件")
		}
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		log.Warn().Strs("failed", initErrors).Msg("部分存储组件初始化失败")
	}
	return storage, nil
}

// declareTopology 声明 topic exchange、抽取队列，并把上传事件路由到抽取队列
func (s *Storage) declareTopology(cfg *config.RabbitMQConfig) error {
	if err := s.RabbitMQ.EnsureExchange(cfg.ResumeExchange, "topic", true); err != nil {
		return err
	}
	if err := s.RabbitMQ.EnsureQueue(cfg.ExtractQueue, true); err != nil {
		return err
	}
	return s.RabbitMQ.BindQueue(cfg.ExtractQueue, cfg.ResumeExchange, cfg.UploadedRoutingKey)
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Component("storage")
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// MinIO 客户端基于 HTTP，无需显式关闭
}
