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

	"embyauto/backend/internal/auth"
	jwtpkg "embyauto/backend/internal/auth/jwt"
	"embyauto/backend/internal/config"
	"embyauto/backend/internal/health"
	"embyauto/backend/internal/logger"
	"embyauto/backend/internal/mailtm"
	"embyauto/backend/internal/monitoring"
	"embyauto/backend/internal/registrar"
	"embyauto/backend/internal/service"
	httptransport "embyauto/backend/internal/transport/http"
	"embyauto/backend/internal/websocket"
)

// main 启动开号编排服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting embyauto server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查（就绪检查会探测临时邮箱服务）
	healthChecker := health.NewHealthChecker(cfg.MailTM.BaseURL, log)

	// 初始化上游客户端
	mailClient := mailtm.New(nil, mailtm.Config{
		BaseURL:         cfg.MailTM.BaseURL,
		Timeout:         cfg.MailTM.Timeout,
		LocalPartLength: cfg.MailTM.LocalPartLength,
		PasswordLength:  cfg.MailTM.PasswordLength,
	}, log)
	mailClient.SetPollObserver(metrics.RecordInboxPoll)

	regClient := registrar.New(nil, registrar.Config{
		URL:     cfg.Registrar.URL,
		Origin:  cfg.Registrar.Origin,
		Referer: cfg.Registrar.Referer,
		Timeout: cfg.Registrar.Timeout,
	}, log)

	// 初始化认证服务
	authService, err := auth.NewService(cfg)
	if err != nil {
		log.Fatal("failed to initialize auth service", zap.Error(err))
	}
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
		zap.Duration("refresh_expiry", cfg.JWT.RefreshExpiry),
	)

	// 创建 WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, jwtManager, log)
	wsHub.SetMetrics(metrics)

	// 初始化开号编排服务
	provisionService := service.NewProvisionService(mailClient, regClient, cfg, log)
	provisionService.SetProgressSink(wsHub)
	provisionService.SetMetrics(metrics)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:           cfg,
		AuthService:      authService,
		JWTManager:       jwtManager,
		ProvisionService: provisionService,
		WebSocketHub:     wsHub,
		HealthChecker:    healthChecker,
		Metrics:          metrics,
		Logger:           log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// 开号流程同步执行，收件箱轮询最长可达数分钟
		WriteTimeout: cfg.MailTM.PollTimeout + 2*time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// WebSocket Hub goroutine
	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
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

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
