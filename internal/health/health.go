package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"portfolio/backend/internal/storage"
)

// Checker 健康检查器
type Checker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewChecker 创建健康检查器
func NewChecker(store storage.Store, logger *zap.Logger) *Checker {
	hc := &Checker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	hc.addChecks()
	return hc
}

// addChecks 注册存活与就绪检查
func (hc *Checker) addChecks() {
	// 存储连通性决定就绪状态
	hc.health.AddReadinessCheck("store", func() error {
		return hc.store.Health()
	})

	// 协程数异常增长说明通知队列或连接泄漏
	hc.health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(500))
}

// Live 返回存活探针处理器
func (hc *Checker) Live() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// Ready 返回就绪探针处理器
func (hc *Checker) Ready() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}
