package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// ProcedureErrors counts failed procedures by their fixed message
	ProcedureErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procedure_errors_total",
			Help: "Total number of procedures answered with an internal error",
		},
		[]string{"message"},
	)

	MessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_messages_received_total",
			Help: "Total number of contact messages stored",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by a rate limit",
		},
		[]string{"path"},
	)

	UploadsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_registered_total",
			Help: "Total number of uploads saved",
		},
		[]string{"source"}, // source: admin, callback
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of outbound notifications",
		},
		[]string{"channel", "status"},
	)
)

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func RecordProcedureError(message string) {
	ProcedureErrors.WithLabelValues(message).Inc()
}

func RecordNotification(channel string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	NotificationsSent.WithLabelValues(channel, status).Inc()
}
