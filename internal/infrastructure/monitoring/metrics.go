// Package monitoring owns the Prometheus series that are not tied to the
// HTTP layer: datastore latency, pool saturation and committed lifecycle
// operations.
package monitoring

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending_service"

var (
	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_query_duration_seconds",
		Help:      "Latency of repository operations by query name and outcome.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"query_name", "status"})

	lifecycleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_operations_total",
		Help:      "Committed lifecycle operations by resource and action.",
	}, []string{"resource", "action"})
)

// RecordDBQuery observes one repository call. status is success, error or not_found.
func RecordDBQuery(queryName, status string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLifecycle(resource, action string) {
	lifecycleOperations.WithLabelValues(resource, action).Inc()
}

// PoolStats is satisfied by *pgxpool.Stat.
type PoolStats interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
	MaxConns() int32
}

// poolCollector reads pool statistics at scrape time.
type poolCollector struct {
	stat func() PoolStats

	total    *prometheus.Desc
	idle     *prometheus.Desc
	acquired *prometheus.Desc
	max      *prometheus.Desc
}

func newPoolCollector(stat func() PoolStats) *poolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db_pool", name), help, nil, nil)
	}
	return &poolCollector{
		stat:     stat,
		total:    desc("total_conns", "Connections currently open."),
		idle:     desc("idle_conns", "Open connections not in use."),
		acquired: desc("acquired_conns", "Connections checked out by callers."),
		max:      desc("max_conns", "Configured pool size."),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.idle
	ch <- c.acquired
	ch <- c.max
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns()))
}

// RegisterPoolCollector exposes pool gauges on reg. Registering twice is not an error.
func RegisterPoolCollector(reg prometheus.Registerer, stat func() PoolStats) error {
	err := reg.Register(newPoolCollector(stat))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
