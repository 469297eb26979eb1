package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio/backend/internal/captcha"
	"portfolio/backend/internal/config"
	"portfolio/backend/internal/health"
	"portfolio/backend/internal/logger"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/notify"
	"portfolio/backend/internal/pool"
	"portfolio/backend/internal/service"
	"portfolio/backend/internal/storage"
	"portfolio/backend/internal/storage/memory"
	"portfolio/backend/internal/storage/postgres"
	sqlstore "portfolio/backend/internal/storage/sql"
	httptransport "portfolio/backend/internal/transport/http"
)

// main 启动留言/订阅入站服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting portfolio intake server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.Bool("captcha_enabled", cfg.CaptchaEnabled()),
	)

	// 初始化存储层
	store, err := initializeStorage(cfg, log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize storage: %v", err))
	}
	defer store.Close()

	// 初始化监控与健康检查
	metrics := monitoring.NewMetrics()
	healthChecker := health.NewChecker(store, log)

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 通知投递协程池（尽力而为的旁路，不阻塞请求）。
	// 池的生命周期独立于信号上下文，停机时由 Stop 排空后退出。
	dispatch := pool.NewWorkerPool(4, 64, log)
	dispatch.Start()

	// 能力选择：验证器与通知器在启动时根据配置各自落到
	// 真实实现或禁用/日志实现，调用点不再感知配置
	verifier := captcha.New(cfg.Captcha, log)
	notifier := notify.New(cfg.Notify, log)

	// 初始化服务层
	contactService := service.NewContactService(store, verifier, notifier, dispatch, log)
	newsletterService := service.NewNewsletterService(store, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:            cfg,
		ContactService:    contactService,
		NewsletterService: newsletterService,
		Metrics:           metrics,
		Logger:            log,
	})

	// 健康检查探针（用于 Kubernetes 等）
	router.GET("/health/live", gin.WrapH(healthChecker.Live()))
	router.GET("/health/ready", gin.WrapH(healthChecker.Ready()))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		// 排空尚未投递的通知
		dispatch.Stop()

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStorage 根据配置选择存储实现
func initializeStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	db := cfg.Database

	switch db.Type {
	case "mysql":
		store, err := sqlstore.NewStore(db.DSN, db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime, db.QueryTimeout)
		if err != nil {
			return nil, err
		}
		log.Info("using MySQL storage")
		return store, nil

	case "postgres":
		store, err := postgres.NewStore(db.DSN, db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime, db.QueryTimeout)
		if err != nil {
			return nil, err
		}
		log.Info("using PostgreSQL storage")
		return store, nil

	default:
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	}
}
