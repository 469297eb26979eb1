package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 入站业务指标
	ContactSubmissions      *prometheus.CounterVec
	NewsletterSubscriptions *prometheus.CounterVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
//
// promauto 会把指标注册到默认 registry，进程内只应调用一次。
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		ContactSubmissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_contact_submissions_total",
				Help: "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),

		NewsletterSubscriptions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_newsletter_requests_total",
				Help: "Newsletter subscription requests by outcome",
			},
			[]string{"outcome"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordContactSubmission 记录联系表单提交结果
func (m *Metrics) RecordContactSubmission(outcome string) {
	m.ContactSubmissions.WithLabelValues(outcome).Inc()
}

// RecordNewsletterRequest 记录订阅请求结果
func (m *Metrics) RecordNewsletterRequest(outcome string) {
	m.NewsletterSubscriptions.WithLabelValues(outcome).Inc()
}

// RecordError 记录一次错误
func (m *Metrics) RecordError(errType string) {
	m.ErrorsTotal.WithLabelValues(errType).Inc()
}

// RecordPanic 记录一次 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus 指标端点处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
