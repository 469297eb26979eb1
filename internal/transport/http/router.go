package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/middleware"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config            *config.Config
	ContactService    *service.ContactService
	NewsletterService *service.NewsletterService
	Metrics           *monitoring.Metrics // 可选，为 nil 时不挂指标中间件
	Logger            *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router.Use(middleware.RecoveryHandler(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.IntakeBodyLimit))

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics)
		router.Use(mm.HTTPMetrics())
		router.Use(mm.BusinessMetrics())
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 允许所有来源时需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := NewIntakeHandler(deps.ContactService, deps.NewsletterService)

	api := router.Group("/api")
	if deps.Config.RateLimit.RequestsPerMinute > 0 {
		api.Use(middleware.RateLimitByIP(
			deps.Config.RateLimit.RequestsPerMinute,
			deps.Config.RateLimit.Burst,
			log,
		))
	}

	api.POST("/contact", handler.SubmitContact)
	api.POST("/newsletter", handler.Subscribe)
	api.POST("/newsletter/unsubscribe", handler.Unsubscribe)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
