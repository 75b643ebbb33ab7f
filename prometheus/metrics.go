package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Order metrics
var (
	OrdersPlacedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shoplive_orders_placed_total",
			Help: "Total number of orders accepted by order intake",
		},
	)

	OrderRejectionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_order_rejections_total",
			Help: "Total number of rejected order submissions",
		},
		[]string{"reason"}, // validation, not_found, insufficient_stock, error
	)

	OrderStatusUpdatesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_order_status_updates_total",
			Help: "Total number of merchant order status updates",
		},
		[]string{"status"},
	)
)

// Catalog and media metrics
var (
	ProductOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"}, // create, update, delete, view
	)

	ProductCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_product_cache_total",
			Help: "Public product cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error, stale
	)

	ImageOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_image_operations_total",
			Help: "Total number of image store operations",
		},
		[]string{"operation", "result"},
	)
)

// Auth metrics
var (
	AuthAttemptsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoplive_auth_attempts_total",
			Help: "Total number of register and login attempts",
		},
		[]string{"operation", "result"},
	)
)

// DBOperationDuration records storage call latency
var DBOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shoplive_db_operation_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

func init() {
	prometheus.MustRegister(OrdersPlacedCounter)
	prometheus.MustRegister(OrderRejectionsCounter)
	prometheus.MustRegister(OrderStatusUpdatesCounter)
	prometheus.MustRegister(ProductOperationsCounter)
	prometheus.MustRegister(ProductCacheCounter)
	prometheus.MustRegister(ImageOperationsCounter)
	prometheus.MustRegister(AuthAttemptsCounter)
	prometheus.MustRegister(DBOperationDuration)
}

// TrackDBOperation measures a database operation; call the returned func when it finishes
//
//	defer prometheus.TrackDBOperation("place_order")()
func TrackDBOperation(operation string) func() {
	start := time.Now()
	return func() {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordOrderRejected increments the rejection counter for reason
func RecordOrderRejected(reason string) {
	OrderRejectionsCounter.WithLabelValues(reason).Inc()
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCacheResult counts a product cache lookup
func RecordCacheResult(result string) {
	ProductCacheCounter.WithLabelValues(result).Inc()
}

// RecordImageOperation counts an upload or delete against the image store
func RecordImageOperation(operation string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	ImageOperationsCounter.WithLabelValues(operation, result).Inc()
}

// RecordAuthAttempt counts a register or login attempt
func RecordAuthAttempt(operation, result string) {
	AuthAttemptsCounter.WithLabelValues(operation, result).Inc()
}
