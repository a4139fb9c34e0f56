package deepcopy

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// These atomics hold the handful of counters/gauges Copy touches on its
// hot path as plain atomics; they are only projected into Prometheus
// collectors when EnableMetrics is called. This keeps the zero-config
// default (no Prometheus registry wired) free of any collector overhead.
var (
	poolInUse           atomic.Int64
	unsupportedTypeHits atomic.Int64
	constructionFailures atomic.Int64
)

func metricsPoolGet() { poolInUse.Add(1) }
func metricsPoolPut() { poolInUse.Add(-1) }

func metricsUnsupportedType()  { unsupportedTypeHits.Add(1) }
func metricsConstructionError() { constructionFailures.Add(1) }

// collector adapts the package's atomic counters to prometheus.Collector
// so EnableMetrics can register a single object instead of one per gauge.
type collector struct {
	copierCacheSize *prometheus.Desc
	policyCacheSize *prometheus.Desc
	poolInUse       *prometheus.Desc
	errors          *prometheus.Desc
}

func newCollector() *collector {
	return &collector{
		copierCacheSize: prometheus.NewDesc(
			"deepcopy_copier_cache_entries", "Number of distinct types with a memoized copier.", nil, nil),
		policyCacheSize: prometheus.NewDesc(
			"deepcopy_policy_cache_entries", "Number of distinct types with a memoized copy policy.", nil, nil),
		poolInUse: prometheus.NewDesc(
			"deepcopy_context_pool_in_use", "Number of Context instances currently leased from any Pool.", nil, nil),
		errors: prometheus.NewDesc(
			"deepcopy_errors_total", "Count of error-path occurrences by kind.", []string{"kind"}, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.copierCacheSize
	ch <- c.policyCacheSize
	ch <- c.poolInUse
	ch <- c.errors
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	copierCacheMu.RLock()
	copierEntries := len(copierCache)
	copierCacheMu.RUnlock()

	policyCacheMu.RLock()
	policyEntries := len(policyCache)
	policyCacheMu.RUnlock()

	ch <- prometheus.MustNewConstMetric(c.copierCacheSize, prometheus.GaugeValue, float64(copierEntries))
	ch <- prometheus.MustNewConstMetric(c.policyCacheSize, prometheus.GaugeValue, float64(policyEntries))
	ch <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(poolInUse.Load()))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(unsupportedTypeHits.Load()), "unsupported_type")
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(constructionFailures.Load()), "construction_failure")
}

// EnableMetrics registers the package's cache/pool/error gauges and
// counters with reg. It is safe to call at most once per registerer;
// calling it again with the same registerer returns the AlreadyRegistered
// error from reg.Register.
func EnableMetrics(reg prometheus.Registerer) error {
	return reg.Register(newCollector())
}
