package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio/backend/internal/monitoring"
)

// MonitoringMiddleware 监控中间件
type MonitoringMiddleware struct {
	metrics *monitoring.Metrics
}

// NewMonitoringMiddleware 创建监控中间件
func NewMonitoringMiddleware(metrics *monitoring.Metrics) *MonitoringMiddleware {
	return &MonitoringMiddleware{metrics: metrics}
}

// HTTPMetrics HTTP 指标中间件
func (mm *MonitoringMiddleware) HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := strconv.Itoa(c.Writer.Status())

		mm.metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), statusCode, duration)

		if c.Writer.Status() >= 400 {
			mm.metrics.RecordError("http_error")
		}
	}
}

// BusinessMetrics 业务指标中间件
//
// 按路由与响应码归类入站结果；内部细分（already/resubscribed）
// 在指标层面不区分，只看接受与否。
func (mm *MonitoringMiddleware) BusinessMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}

		outcome := outcomeForStatus(c.Writer.Status())

		switch c.FullPath() {
		case "/api/contact":
			mm.metrics.RecordContactSubmission(outcome)
		case "/api/newsletter", "/api/newsletter/unsubscribe":
			mm.metrics.RecordNewsletterRequest(outcome)
		}
	}
}

// outcomeForStatus 将响应码折叠为指标标签
func outcomeForStatus(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "rejected"
	default:
		return "accepted"
	}
}
