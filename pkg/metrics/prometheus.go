package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics of a CargoTrack process.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	NotificationsQueued *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	SendDuration        prometheus.Histogram
	CacheLookups        *prometheus.CounterVec
}

// NewMetrics registers metrics on reg. Pass prometheus.DefaultRegisterer in
// commands and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected payloads by validation error kind",
		}, []string{"kind"}),
		NotificationsQueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_queued_total",
			Help:      "Notifications handed to the delivery pipeline",
		}, []string{"template"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Emails accepted by the provider",
		}, []string{"provider"}),
		NotificationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Failed email attempts",
		}, []string{"provider"}),
		SendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_send_seconds",
			Help:      "Time taken by the provider to accept an email",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Tracking cache lookups by result",
		}, []string{"result"}),
	}
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return NewMetrics("nop", prometheus.NewRegistry())
}
