package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// visitorSweepInterval 两次过期清理之间的最小间隔
	visitorSweepInterval = 5 * time.Minute
	// visitorStaleAfter IP 条目多久未活跃后被清理
	visitorStaleAfter = 10 * time.Minute
)

// visitorEntry 单个来源 IP 的限流状态
type visitorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorRegistry 按 IP 维护限流器。
//
// 过期条目在请求路径上顺带清理（每 visitorSweepInterval 至多一次），
// 不另起后台协程，中间件随路由一起被回收。
type visitorRegistry struct {
	mu        sync.Mutex
	visitors  map[string]*visitorEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func newVisitorRegistry(requestsPerMinute, burst int) *visitorRegistry {
	return &visitorRegistry{
		visitors:  make(map[string]*visitorEntry),
		limit:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// allow 报告来源 IP 的本次请求是否放行。
func (r *visitorRegistry) allow(ip string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > visitorSweepInterval {
		r.sweepLocked(now)
	}

	entry, ok := r.visitors[ip]
	if !ok {
		entry = &visitorEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// sweepLocked 删除过期条目，调用方必须持有锁。
func (r *visitorRegistry) sweepLocked(now time.Time) {
	for ip, entry := range r.visitors {
		if now.Sub(entry.lastSeen) > visitorStaleAfter {
			delete(r.visitors, ip)
		}
	}
	r.lastSweep = now
}

// RateLimitByIP 按客户端 IP 限流的中间件
//
// 超出限额的请求收到 429。
func RateLimitByIP(requestsPerMinute, burst int, log *zap.Logger) gin.HandlerFunc {
	registry := newVisitorRegistry(requestsPerMinute, burst)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !registry.allow(ip, time.Now()) {
			log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
