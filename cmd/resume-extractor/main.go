package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/pflag"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/api/router"
	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/outbox"
	"resume-extractor/internal/parser"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/tracing"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var (
		configPath string
		runWorker  bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认位置查找")
	pflag.BoolVar(&runWorker, "worker", true, "是否在本进程内启动队列消费者")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg)
	log := logger.Component("main")
	log.Info().Str("version", version).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing, version)
	if err != nil {
		log.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
	}

	st, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("存储组件均不可用，以纯抽取模式运行")
		st = nil
	} else {
		defer st.Close()
	}

	loader, err := parser.NewDocumentLoader(ctx,
		parser.WithMaxFileBytes(cfg.MaxUploadBytes()),
		parser.WithAllowedExtensions(cfg.Upload.AllowedExtensions),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化文档解析器失败")
	}

	svc := processor.NewExtractionService(cfg, loader, processor.FromStorage(st)...)
	log.Info().Bool("async", svc.Async()).Msg("抽取服务初始化成功")

	var consumerDone <-chan struct{}
	if runWorker && st != nil && st.RabbitMQ != nil && svc.Async() {
		consumerDone, err = st.RabbitMQ.StartConsumer(ctx, cfg.RabbitMQ.ExtractQueue, cfg.RabbitMQ.PrefetchCount,
			func(ctx context.Context, d amqp.Delivery) error {
				return svc.HandleUploadMessage(ctx, d.Body)
			})
		if err != nil {
			log.Fatal().Err(err).Msg("启动简历抽取消费者失败")
		}
		log.Info().Str("queue", cfg.RabbitMQ.ExtractQueue).Msg("简历抽取消费者已启动")
	}

	var relay *outbox.MessageRelay
	if st != nil && st.MySQL != nil && st.RabbitMQ != nil {
		relay = outbox.NewMessageRelay(st.MySQL.DB(), st.RabbitMQ)
		relay.Start()
		log.Info().Msg("消息中继服务已启动")
	}

	h := router.NewServer(cfg)
	router.RegisterRoutes(h, cfg, handler.NewExtractHandler(svc))

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			log.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSecs) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP服务器关闭失败")
	}

	// 先停止接收新消息，再停中继
	cancel()
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			log.Warn().Msg("等待消费者退出超时")
		}
	}
	if relay != nil {
		relay.Stop()
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}
	log.Info().Msg("优雅退出完成")
}

// initLogger 初始化应用日志，并让 Hertz 的 hlog 复用同一个 zerolog 实例
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config(cfg.Logger))

	glog.SetLogger(hertzadapter.From(logger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}
