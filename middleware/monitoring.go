package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	paymentWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_service_payment_webhooks_total",
			Help: "Total number of payment webhooks received",
		},
		[]string{"state"},
	)

	sseSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shop_service_sse_subscribers",
			Help: "Number of currently connected SSE subscribers",
		},
	)
)

// PrometheusMiddleware records request counts and latencies.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

// RecordPaymentWebhook counts an inbound provider notification by state. The
// endpoint is unauthenticated, so only recognized states become label values;
// anything else is bucketed to keep the series set bounded.
func RecordPaymentWebhook(state string) {
	switch state {
	case "CREATED", "AUTHORIZED", "COMPLETED", "REFUNDED", "FAILED", "CANCELED", "EXPIRED":
	case "":
		state = "unknown"
	default:
		state = "other"
	}
	paymentWebhooksTotal.WithLabelValues(state).Inc()
}

// SSESubscriberConnected / SSESubscriberDisconnected track the live stream count.
func SSESubscriberConnected()    { sseSubscribers.Inc() }
func SSESubscriberDisconnected() { sseSubscribers.Dec() }
