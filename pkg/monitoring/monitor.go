package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	// ExamsWritten 按模式和操作统计成功写入的试卷
	ExamsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_writes_total",
			Help: "Exams created or regenerated, by mode and operation",
		},
		[]string{"mode", "operation"},
	)

	// PoolShortfalls 自动组卷时题库不足的次数
	PoolShortfalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_pool_shortfalls_total",
			Help: "Sampling requests rejected because a difficulty pool was too small",
		},
		[]string{"difficulty"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, ExamsWritten, PoolShortfalls)
	})
}

// MetricsMiddleware 按路由模板记录请求，未匹配的路由统一记为 unmatched
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
