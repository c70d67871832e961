package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the subset of pool statistics exported as metrics.
type PoolStats struct {
	Acquired        int32
	Idle            int32
	Total           int32
	Max             int32
	AcquireCount    int64
	EmptyAcquires   int64
	AcquireDuration time.Duration
}

// StatsSource yields a snapshot of pool statistics.
type StatsSource func() PoolStats

// PgxPoolStats adapts a pgx pool to a StatsSource.
func PgxPoolStats(pool *pgxpool.Pool) StatsSource {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:        s.AcquiredConns(),
			Idle:            s.IdleConns(),
			Total:           s.TotalConns(),
			Max:             s.MaxConns(),
			AcquireCount:    s.AcquireCount(),
			EmptyAcquires:   s.EmptyAcquireCount(),
			AcquireDuration: s.AcquireDuration(),
		}
	}
}

// PoolStatsCollector implements prometheus.Collector for connection pool metrics.
type PoolStatsCollector struct {
	stats   StatsSource
	service string

	acquired        *prometheus.Desc
	idle            *prometheus.Desc
	total           *prometheus.Desc
	max             *prometheus.Desc
	acquireCount    *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	acquireDuration *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading from stats.
func NewPoolStatsCollector(stats StatsSource, service string) *PoolStatsCollector {
	labels := []string{"service"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &PoolStatsCollector{
		stats:           stats,
		service:         service,
		acquired:        desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idle:            desc("db_pool_idle_connections", "Number of currently idle connections"),
		total:           desc("db_pool_total_connections", "Total number of connections in the pool"),
		max:             desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:    desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		emptyAcquires:   desc("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection"),
		acquireDuration: desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections"),
	}
}

// Describe sends the descriptors of all metrics to the provided channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.acquired, c.idle, c.total, c.max, c.acquireCount, c.emptyAcquires, c.acquireDuration,
	} {
		ch <- d
	}
}

// Collect reads current pool statistics and sends them as Prometheus metrics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}

	gauge(c.acquired, float64(s.Acquired))
	gauge(c.idle, float64(s.Idle))
	gauge(c.total, float64(s.Total))
	gauge(c.max, float64(s.Max))
	counter(c.acquireCount, float64(s.AcquireCount))
	counter(c.emptyAcquires, float64(s.EmptyAcquires))
	counter(c.acquireDuration, s.AcquireDuration.Seconds())
}

// RegisterPoolMetrics registers a collector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(PgxPoolStats(pool), service))
}
