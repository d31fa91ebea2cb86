// Package observability holds the Prometheus collectors shared across the journal service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	logEntriesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "persistence",
		Name:      "log_entries_created_total",
		Help:      "Number of log entries persisted, labeled by store driver.",
	}, []string{"driver"})

	lastPersistedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "journal",
		Subsystem: "persistence",
		Name:      "last_log_entry_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent log entry persisted.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests served, labeled by method, path and status code.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(logEntriesCreated, lastPersistedGauge, httpRequests, httpDuration)
}

// RecordLogEntryPersisted counts a stored entry and moves the persistence watermark.
func RecordLogEntryPersisted(driver string, ts time.Time) {
	logEntriesCreated.WithLabelValues(driver).Inc()
	if ts.IsZero() {
		return
	}
	lastPersistedGauge.Set(float64(ts.Unix()))
}

// RecordHTTPRequest observes a completed request.
func RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
