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
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 开号流程指标
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	RunsInFlight   prometheus.Gauge
	InboxPollTotal prometheus.Counter

	// WebSocket 指标
	WSClientsConnected prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP 请求指标
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embyauto_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embyauto_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embyauto_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embyauto_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		// 开号流程指标
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embyauto_provision_runs_total",
				Help: "Total number of provisioning runs by outcome and failure stage",
			},
			[]string{"outcome", "stage"},
		),

		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embyauto_provision_run_duration_seconds",
				Help:    "Provisioning run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300, 600},
			},
			[]string{"outcome"},
		),

		RunsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "embyauto_provision_runs_in_flight",
				Help: "Number of provisioning runs currently executing",
			},
		),

		InboxPollTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "embyauto_inbox_polls_total",
				Help: "Total number of inbox poll requests to the mail provider",
			},
		),

		// WebSocket 指标
		WSClientsConnected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "embyauto_ws_clients_connected",
				Help: "Number of connected WebSocket clients",
			},
		),

		// 错误指标
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embyauto_errors_total",
				Help: "Total number of errors by type and component",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "embyauto_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		// 限流指标
		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embyauto_rate_limit_blocks_total",
				Help: "Total number of requests blocked by rate limiting",
			},
			[]string{"endpoint"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordRun 记录一次开号流程的结果
//
// 成功的流程 stage 为空，统一用 "none" 标记以避免空标签值。
func (m *Metrics) RecordRun(success bool, stage string, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	if stage == "" {
		stage = "none"
	}
	m.RunsTotal.WithLabelValues(outcome, stage).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RunStarted 标记一次开号流程开始执行
func (m *Metrics) RunStarted() {
	m.RunsInFlight.Inc()
}

// RunFinished 标记一次开号流程执行结束
func (m *Metrics) RunFinished() {
	m.RunsInFlight.Dec()
}

// RecordInboxPoll 记录一次收件箱轮询
func (m *Metrics) RecordInboxPoll() {
	m.InboxPollTotal.Inc()
}

// RecordWSConnect 记录 WebSocket 客户端连接
func (m *Metrics) RecordWSConnect() {
	m.WSClientsConnected.Inc()
}

// RecordWSDisconnect 记录 WebSocket 客户端断开
func (m *Metrics) RecordWSDisconnect() {
	m.WSClientsConnected.Dec()
}

// RecordError 记录错误指标
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic 指标
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流拦截指标
func (m *Metrics) RecordRateLimitBlock(endpoint string) {
	m.RateLimitBlocks.WithLabelValues(endpoint).Inc()
}

// HTTPHandler 返回 Prometheus 指标的 HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
