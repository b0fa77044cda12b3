package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	appLogger "resume-extractor/internal/logger"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"
)

var mysqlTracer = otel.Tracer("resume-extractor/storage/mysql")

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = gorm.ErrRecordNotFound

type gormSpanKey struct{}

// GormTracingPlugin 是一个GORM插件，为每条语句创建一个 OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		operation string
		before    func(name string) error
		after     func(name string) error
	}{
		{"CREATE",
			func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.before("CREATE")) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, p.after()) }},
		{"SELECT",
			func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.before("SELECT")) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, p.after()) }},
		{"UPDATE",
			func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.before("UPDATE")) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, p.after()) }},
		{"DELETE",
			func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.before("DELETE")) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.after()) }},
		{"ROW",
			func(n string) error { return cb.Row().Before("gorm:row").Register(n, p.before("ROW")) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, p.after()) }},
		{"RAW",
			func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, p.before("RAW")) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, p.after()) }},
	}
	for _, h := range hooks {
		if err := h.before("otel:before_" + h.operation); err != nil {
			return err
		}
		if err := h.after("otel:after_" + h.operation); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			opts = append(opts, trace.WithAttributes(attribute.String("db.statement", tracing.SafeSQL(sql))))
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+tableName, opts...)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 未找到属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// OutboxTarget candidate 事件投递的目标交换机和路由键
type OutboxTarget struct {
	Exchange   string
	RoutingKey string
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db     *gorm.DB
	cfg    *config.MySQLConfig
	outbox OutboxTarget
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig, outbox OutboxTarget) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	case 4:
		logLevel = gormlogger.Info
	default:
		logLevel = gormlogger.Warn
	}

	// GORM 的日志通过 zerolog 输出
	gormLog := gormlogger.New(
		log.New(appLogger.Logger, "", 0),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg, outbox: outbox}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	appLogger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构，迁移期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: m.db.Logger.LogMode(gormlogger.Silent)})
	if err := silentDB.AutoMigrate(
		&models.Candidate{},
		&models.Resume{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查连接
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateResume 登记一次上传
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume) error {
	if err := m.db.WithContext(ctx).Create(resume).Error; err != nil {
		return fmt.Errorf("创建简历记录失败: %w", err)
	}
	return nil
}

// UpdateResumeStatus 更新简历处理状态，errMsg 为空时清空错误信息
func (m *MySQL) UpdateResumeStatus(ctx context.Context, resumeID, status, errMsg string) error {
	updates := map[string]any{
		"processing_status": status,
		"error_message":     errMsg,
	}
	res := m.db.WithContext(ctx).Model(&models.Resume{}).Where("resume_id = ?", resumeID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("更新简历状态失败: %w", res.Error)
	}
	return nil
}

// SetParsedTextPath 记录抽取文本在对象存储中的路径
func (m *MySQL) SetParsedTextPath(ctx context.Context, resumeID, objectName string) error {
	res := m.db.WithContext(ctx).Model(&models.Resume{}).
		Where("resume_id = ?", resumeID).
		Update("parsed_text_path_oss", objectName)
	if res.Error != nil {
		return fmt.Errorf("更新解析文本路径失败: %w", res.Error)
	}
	return nil
}

// GetResume 按ID查询上传记录
func (m *MySQL) GetResume(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	if err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&resume).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

// GetCandidate 按ID查询候选人，不存在时返回 ErrRecordNotFound
func (m *MySQL) GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error) {
	var c models.Candidate
	if err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCandidate 在一个事务中完成：
// 按邮箱或电话查找已有候选人（行锁），合并本次抽取结果后保存，
// 回写简历记录的候选人ID和状态，并写入一条 candidate.extracted outbox 消息。
func (m *MySQL) SaveCandidate(ctx context.Context, info *types.ExtractedInfo, resumeID string) (*models.Candidate, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveCandidate", trace.WithAttributes(
		attribute.String("resume.id", resumeID),
		attribute.String("candidate.email", tracing.MaskPII(info.Email)),
		attribute.String("candidate.phone", tracing.MaskPII(info.Phone)),
	))
	defer span.End()

	var saved *models.Candidate
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := m.findCandidateForUpdate(tx, info.Email, info.Phone)
		if err != nil {
			return err
		}

		isNew := existing == nil
		if isNew {
			newUUID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("生成UUIDv7失败: %w", err)
			}
			existing = &models.Candidate{CandidateID: newUUID.String()}
		}

		saved = models.BuildCandidate(existing, info, resumeID)
		if isNew {
			err = tx.Create(saved).Error
		} else {
			err = tx.Save(saved).Error
		}
		if err != nil {
			return fmt.Errorf("保存候选人失败: %w", err)
		}

		if resumeID != "" {
			if err := tx.Model(&models.Resume{}).Where("resume_id = ?", resumeID).Updates(map[string]any{
				"candidate_id":      saved.CandidateID,
				"processing_status": models.ResumeStatusExtracted,
				"error_message":     "",
			}).Error; err != nil {
				return fmt.Errorf("回写简历记录失败: %w", err)
			}
		}

		return m.enqueueCandidateEvent(tx, saved, info, resumeID, isNew)
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	span.SetAttributes(attribute.String("candidate.id", saved.CandidateID))
	return saved, nil
}

// findCandidateForUpdate 通过邮箱或电话查找候选人，两者都为空或未找到时返回 nil
func (m *MySQL) findCandidateForUpdate(tx *gorm.DB, email, phone string) (*models.Candidate, error) {
	if email == "" && phone == "" {
		return nil, nil
	}

	query := tx.Model(&models.Candidate{}).Clauses(clause.Locking{Strength: "UPDATE"})
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ?", email).Or("phone = ?", phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var candidate models.Candidate
	err := query.Order("updated_at DESC").First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}
	return &candidate, nil
}

func (m *MySQL) enqueueCandidateEvent(tx *gorm.DB, c *models.Candidate, info *types.ExtractedInfo, resumeID string, isNew bool) error {
	if m.outbox.Exchange == "" {
		return nil
	}

	payload, err := json.Marshal(CandidateExtractedMessage{
		CandidateID:       c.CandidateID,
		ResumeID:          resumeID,
		Name:              c.Name,
		JobTitle:          c.JobTitle,
		Company:           c.Company,
		Skills:            c.SkillList(),
		YearsOfExperience: c.YearsOfExperience,
		MissingFields:     info.MissingFields(),
		IsNewCandidate:    isNew,
		ExtractedAt:       time.Now(),
	})
	if err != nil {
		return fmt.Errorf("序列化候选人事件失败: %w", err)
	}

	msg := &models.OutboxMessage{
		AggregateID:      c.CandidateID,
		EventType:        constants.EventCandidateExtracted,
		Payload:          string(payload),
		TargetExchange:   m.outbox.Exchange,
		TargetRoutingKey: m.outbox.RoutingKey,
		Status:           models.OutboxStatusPending,
	}
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("写入outbox消息失败: %w", err)
	}
	return nil
}
