package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by the logic and service layers.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DBQueryDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	EmployeesSeeded prometheus.Counter
}

// NewMetrics creates and registers the collectors with reg; a nil reg
// creates unregistered collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_http_requests_total",
			Help: "Total number of handled HTTP requests.",
		}, []string{"route", "method", "code"}),
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_db_query_duration_seconds",
			Help:    "Duration of store queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'employee_read', 'employees_read', ...
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_cache_lookups_total",
			Help: "Total number of cache lookups by result.",
		}, []string{"key", "result"}),
		EmployeesSeeded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "employees_seeded_total",
			Help: "Total number of employees inserted by seeding.",
		}),
	}

	for _, key := range []string{"employee", "employees"} {
		metrics.CacheLookups.WithLabelValues(key, "hit")
		metrics.CacheLookups.WithLabelValues(key, "miss")
	}

	return metrics
}

// ObserveQuery records the time elapsed since start for queryType
func (m *Metrics) ObserveQuery(queryType string, start time.Time) {
	m.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}

// CacheLookup counts a hit or miss for key
func (m *Metrics) CacheLookup(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(key, result).Inc()
}
