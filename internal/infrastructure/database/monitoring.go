package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*PoolCollector)(nil)

// PoolCollector exports pgxpool statistics as Prometheus metrics. Values are
// read from the pool on every scrape.
type PoolCollector struct {
	pool *pgxpool.Pool

	totalConns    *prometheus.Desc
	idleConns     *prometheus.Desc
	acquiredConns *prometheus.Desc
	maxConns      *prometheus.Desc
	acquireCount  *prometheus.Desc
	emptyAcquires *prometheus.Desc
	acquireWait   *prometheus.Desc
}

// NewPoolCollector creates a collector for pool. Register it once per pool.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("laborboard", "db_pool", name), help, nil, nil)
	}
	return &PoolCollector{
		pool:          pool,
		totalConns:    desc("connections", "Connections currently open"),
		idleConns:     desc("idle_connections", "Idle connections in the pool"),
		acquiredConns: desc("acquired_connections", "Connections currently checked out"),
		maxConns:      desc("max_connections", "Configured pool size"),
		acquireCount:  desc("acquires_total", "Successful connection acquires"),
		emptyAcquires: desc("empty_acquires_total", "Acquires that had to wait for a connection"),
		acquireWait:   desc("acquire_wait_seconds_total", "Time spent waiting for a connection"),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.acquiredConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.emptyAcquires
	ch <- c.acquireWait
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, s.AcquireDuration().Seconds())
}
