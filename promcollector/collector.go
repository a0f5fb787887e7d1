// Package promcollector exports reducer metrics to Prometheus.
//
//	c := promcollector.New(prometheus.DefaultRegisterer)
//	r, _ := segreduce.New[float32](segreduce.WithMetricsCollector(c))
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/segreduce"
)

var _ segreduce.MetricsCollector = (*Collector)(nil)

// Collector implements segreduce.MetricsCollector with Prometheus metrics.
type Collector struct {
	callLatency *prometheus.HistogramVec
	calls       *prometheus.CounterVec
	storage     prometheus.Histogram
	segments    *prometheus.CounterVec
	elements    prometheus.Counter
	launches    *prometheus.CounterVec
	groups      *prometheus.CounterVec
}

// New creates a Collector and registers its metrics with reg.
// If reg is nil, the metrics are created but not registered.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "segreduce_call_latency_seconds",
			Help:    "Host-side latency of dispatch calls",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"phase", "status"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segreduce_calls_total",
			Help: "Total dispatch calls",
		}, []string{"phase", "status"}),
		storage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segreduce_storage_bytes",
			Help:    "Scratch bytes requested by sizing calls",
			Buckets: prometheus.ExponentialBuckets(256, 4, 12),
		}),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segreduce_segments_total",
			Help: "Segments launched per size class",
		}, []string{"class"}),
		elements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segreduce_elements_total",
			Help: "Input elements of successful dispatches",
		}),
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segreduce_launches_total",
			Help: "Launches enqueued per size class",
		}, []string{"class"}),
		groups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segreduce_groups_total",
			Help: "Worker groups launched per size class",
		}, []string{"class"}),
	}

	if reg != nil {
		reg.MustRegister(c.callLatency, c.calls, c.storage, c.segments, c.elements, c.launches, c.groups)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSizing implements segreduce.MetricsCollector.
func (c *Collector) RecordSizing(_, bytes int, d time.Duration, err error) {
	s := status(err)
	c.callLatency.WithLabelValues("sizing", s).Observe(d.Seconds())
	c.calls.WithLabelValues("sizing", s).Inc()
	if err == nil {
		c.storage.Observe(float64(bytes))
	}
}

// RecordDispatch implements segreduce.MetricsCollector.
func (c *Collector) RecordDispatch(_ int, elements int64, _ int, d time.Duration, err error) {
	s := status(err)
	c.callLatency.WithLabelValues("execution", s).Observe(d.Seconds())
	c.calls.WithLabelValues("execution", s).Inc()
	if err == nil {
		c.elements.Add(float64(elements))
	}
}

// RecordLaunch implements segreduce.MetricsCollector.
func (c *Collector) RecordLaunch(class string, segments, groups int) {
	c.launches.WithLabelValues(class).Inc()
	c.segments.WithLabelValues(class).Add(float64(segments))
	c.groups.WithLabelValues(class).Add(float64(groups))
}
