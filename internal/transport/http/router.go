package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"embyauto/backend/internal/auth"
	jwtpkg "embyauto/backend/internal/auth/jwt"
	"embyauto/backend/internal/config"
	"embyauto/backend/internal/health"
	"embyauto/backend/internal/middleware"
	"embyauto/backend/internal/monitoring"
	"embyauto/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config           *config.Config
	AuthService      *auth.Service
	JWTManager       *jwtpkg.Manager
	ProvisionService Provisioner
	WebSocketHub     *websocket.Hub
	HealthChecker    *health.HealthChecker
	Metrics          *monitoring.Metrics
	Logger           *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// 使用自定义中间件替代默认中间件
	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(mm.PanicRecovery())
		router.Use(mm.HTTPMetrics())
	} else {
		router.Use(middleware.RecoveryHandler(log))
	}
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	authHandler := NewAuthHandler(deps.AuthService, log)
	provisionHandler := NewProvisionHandler(deps.ProvisionService, log)

	// 创建中间件
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)

	// 登录接口限流：防止密码暴力破解
	loginLimiter := middleware.NewIPRateLimiter(1, 5)
	// 开号接口限流：每个 IP 每分钟不超过若干次
	provisionLimiter := middleware.NewIPRateLimiter(0.2, 3)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.HealthChecker != nil {
		hc := deps.HealthChecker.Handler()
		router.GET("/live", gin.WrapH(hc))
		router.GET("/ready", gin.WrapH(hc))
	}

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimit(loginLimiter), authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/me", jwtAuth.RequireAuth(), authHandler.Me)
		}

		v1.POST("/provision",
			jwtAuth.RequireAuth(),
			middleware.RateLimit(provisionLimiter),
			provisionHandler.Provision,
		)
		v1.POST("/provision/batch",
			jwtAuth.RequireAuth(),
			middleware.RateLimit(provisionLimiter),
			provisionHandler.ProvisionBatch,
		)

		if deps.WebSocketHub != nil {
			v1.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
		}
	}

	return router
}
