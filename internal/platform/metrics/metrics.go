// Package metrics はPrometheus形式のメトリクスを収集・公開します。
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリケーション用のレジストリとメトリクスを保持します。
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
}

// New はレジストリと基本メトリクスを初期化します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodlog_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodlog_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	analyses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodlog_analysis_requests_total",
		Help: "Vision model calls by provider and outcome.",
	}, []string{"provider", "outcome"})
	analysisDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodlog_analysis_duration_seconds",
		Help:    "Vision model latency by provider.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})
	registry.MustRegister(requests, duration, analyses, analysisDuration)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		analysesTotal:    analyses,
		analysisDuration: analysisDuration,
	}
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) }
	}
	return gin.WrapH(m.handler)
}

// Middleware は各リクエストの件数とレイテンシを記録します。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// ObserveAnalysis はビジョンモデル呼び出しの結果を記録します。
func (m *Metrics) ObserveAnalysis(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(provider, outcome).Inc()
	m.analysisDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Registerer はカスタムメトリクス登録用にレジストリを公開します。
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// RegisterDBStats はコネクションプールの統計 (go_sql_*) をレジストリに登録します。
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.Registerer().Register(collectors.NewDBStatsCollector(db, dbName))
}
