package metrics_test

import (
	"testing"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	// hit/miss series exist before any lookup
	assert.Equal(t, 4, testutil.CollectAndCount(m.CacheLookups))

	// registering twice panics
	assert.Panics(t, func() { metrics.NewMetrics(reg) })

	// unregistered
	_ = metrics.NewMetrics(nil)
}

func TestCacheLookup(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	m.CacheLookup("employee", true)
	m.CacheLookup("employee", true)
	m.CacheLookup("employees", false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("employee", "hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("employee", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("employees", "miss")))
}

func TestObserveQuery(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	m.ObserveQuery("employee_read", time.Now())
	m.ObserveQuery("employee_read", time.Now().Add(-time.Second))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DBQueryDuration))
}
