package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts storage operations and cache effectiveness. A nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cacheLookup *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg (prometheus.DefaultRegisterer when nil)
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Storage operations by table, operation and result",
		}, []string{"table", "op", "result"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Latency of storage operations including cache work",
			Buckets: prometheus.DefBuckets,
		}, []string{"table", "op"}),

		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_cache_lookups_total",
			Help: "Cache lookups by result (hit|miss)",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration, m.cacheLookup} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one operation; call as `defer s.metrics.observe(table, "insert", time.Now(), &err)`
func (m *Metrics) observe(table, op string, start time.Time, err *error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil && *err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(table, op, result).Inc()
	m.duration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheLookup.WithLabelValues("hit").Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookup.WithLabelValues("miss").Inc()
}
