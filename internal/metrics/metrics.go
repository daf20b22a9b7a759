package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Orders created successfully",
	})

	ordersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_orders_rejected_total",
			Help: "Order creations rejected, by error kind",
		},
		[]string{"kind"},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_order_transitions_total",
			Help: "Order status change attempts",
		},
		[]string{"from", "to", "result"},
	)

	stockAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_stock_adjustments_total",
			Help: "Manual stock adjustments",
		},
		[]string{"result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)
)

func OrderCreated() { ordersCreated.Inc() }

func OrderRejected(kind string) { ordersRejected.WithLabelValues(kind).Inc() }

// result は ok / unchanged / 失敗時のエラー種別
func OrderTransition(from, to, result string) {
	orderTransitions.WithLabelValues(from, to, result).Inc()
}

func StockAdjusted(result string) { stockAdjustments.WithLabelValues(result).Inc() }

func ObserveHTTP(method, path string, status int, durationMs float64) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(durationMs)
}
