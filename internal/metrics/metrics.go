// Package metrics holds the Prometheus collectors for daily and hourly runs.
// Runs are short lived, so collectors are pushed to a Pushgateway instead of
// being scraped.
package metrics

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "onthisday"

// Metrics bundles the run collectors. A nil *Metrics ignores every call.
type Metrics struct {
	registry       *prometheus.Registry
	windowsQueried prometheus.Counter
	recordsSeen    prometheus.Counter
	recordsDropped *prometheus.CounterVec
	recordsStored  prometheus.Counter
	posts          *prometheus.CounterVec
	runDuration    *prometheus.GaugeVec
	lastSuccess    *prometheus.GaugeVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		windowsQueried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_queried_total",
			Help:      "Date windows queried against the catalog",
		}),
		recordsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_seen_total",
			Help:      "Raw records returned by the catalog",
		}),
		recordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw records skipped during the daily run",
		}, []string{"reason"}),
		recordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_stored_total",
			Help:      "Clean records written to the store",
		}),
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Hourly run outcomes",
		}, []string{"result"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}, []string{"run"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}, []string{"run"}),
	}

	registry.MustRegister(
		m.windowsQueried,
		m.recordsSeen,
		m.recordsDropped,
		m.recordsStored,
		m.posts,
		m.runDuration,
		m.lastSuccess,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncWindowsQueried() {
	if m == nil {
		return
	}
	m.windowsQueried.Inc()
}

func (m *Metrics) AddRecordsSeen(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsSeen.Add(float64(n))
}

func (m *Metrics) IncRecordsDropped(reason string) {
	if m == nil {
		return
	}
	m.recordsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddRecordsStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsStored.Add(float64(n))
}

// IncPost records an hourly outcome: posted, empty, dry_run or failed.
func (m *Metrics) IncPost(result string) {
	if m == nil {
		return
	}
	m.posts.WithLabelValues(result).Inc()
}

// ObserveRun records how long run took and, on success, when it finished.
func (m *Metrics) ObserveRun(run string, started time.Time, err error) {
	if m == nil {
		return
	}
	now := time.Now()
	m.runDuration.WithLabelValues(run).Set(now.Sub(started).Seconds())
	if err == nil {
		m.lastSuccess.WithLabelValues(run).Set(float64(now.Unix()))
	}
}

// Push sends the registry to a Pushgateway under job. An empty url is a
// no-op.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || strings.TrimSpace(url) == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return errors.Wrapf(err, "metrics: push to %s", url)
	}
	log.Printf("metrics: pushed job=%s to %s", job, url)
	return nil
}
