package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MbazzaTZ/GOnSales/metric"
)

// tierMetrics holds Prometheus metrics for one cache tier.
type tierMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	deletes   prometheus.Counter
	evictions prometheus.Counter
	expired   prometheus.Counter
	size      prometheus.Gauge
}

// newTierMetrics creates and registers tier metrics with the provided registry.
func newTierMetrics(registry *metric.Registry, tier string) (*tierMetrics, error) {
	labels := prometheus.Labels{"tier": tier}

	m := &tierMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: labels,
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: labels,
			Help:        "Total number of cache misses",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "sets_total",
			ConstLabels: labels,
			Help:        "Total number of cache set operations",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "deletes_total",
			ConstLabels: labels,
			Help:        "Total number of cache delete operations",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: labels,
			Help:        "Total number of capacity evictions",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "expired_total",
			ConstLabels: labels,
			Help:        "Total number of entries removed by expiry",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "gonsales",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of entries in the tier",
		}),
	}

	if err := registry.RegisterCounter(tier, "cache_hits", m.hits); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(tier, "cache_misses", m.misses); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(tier, "cache_sets", m.sets); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(tier, "cache_deletes", m.deletes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(tier, "cache_evictions", m.evictions); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(tier, "cache_expired", m.expired); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(tier, "cache_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *tierMetrics) recordHit()      { m.hits.Inc() }
func (m *tierMetrics) recordMiss()     { m.misses.Inc() }
func (m *tierMetrics) recordSet()      { m.sets.Inc() }
func (m *tierMetrics) recordDelete()   { m.deletes.Inc() }
func (m *tierMetrics) recordEviction() { m.evictions.Inc() }
func (m *tierMetrics) recordExpired()  { m.expired.Inc() }

func (m *tierMetrics) recordEvictionN(n int) { m.evictions.Add(float64(n)) }
func (m *tierMetrics) recordExpiredN(n int)  { m.expired.Add(float64(n)) }

func (m *tierMetrics) updateSize(size int) { m.size.Set(float64(size)) }
