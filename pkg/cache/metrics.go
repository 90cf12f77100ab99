package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
)

// cacheMetrics exports cache statistics to Prometheus when enabled.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cohort_chatbot",
			Subsystem: "cache",
			Name:      prefix + "_hits_total",
			Help:      "Total cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cohort_chatbot",
			Subsystem: "cache",
			Name:      prefix + "_misses_total",
			Help:      "Total cache misses",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cohort_chatbot",
			Subsystem: "cache",
			Name:      prefix + "_sets_total",
			Help:      "Total cache sets",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cohort_chatbot",
			Subsystem: "cache",
			Name:      prefix + "_evictions_total",
			Help:      "Total cache evictions",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cohort_chatbot",
			Subsystem: "cache",
			Name:      prefix + "_size",
			Help:      "Current number of cached entries",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"hits": m.hits, "misses": m.misses, "sets": m.sets,
		"evictions": m.evictions, "size": m.size,
	} {
		if err := registry.Register("cache_"+prefix, name, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) recordSet(size int) {
	if m != nil {
		m.sets.Inc()
		m.size.Set(float64(size))
	}
}

func (m *cacheMetrics) recordEviction(size int) {
	if m != nil {
		m.evictions.Inc()
		m.size.Set(float64(size))
	}
}

func (m *cacheMetrics) recordSize(size int) {
	if m != nil {
		m.size.Set(float64(size))
	}
}
