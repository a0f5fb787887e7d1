package segreduce

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see package promcollector.
type MetricsCollector interface {
	// RecordSizing is called after each sizing call.
	RecordSizing(segments, bytes int, duration time.Duration, err error)

	// RecordDispatch is called after each execution call. launches is the
	// number of launches enqueued, including the prepare launch.
	RecordDispatch(segments int, elements int64, launches int, duration time.Duration, err error)

	// RecordLaunch is called for each size class launch enqueued.
	RecordLaunch(class string, segments, groups int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSizing(int, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordDispatch(int, int64, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordLaunch(string, int, int)                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SizingCount        atomic.Int64
	SizingErrors       atomic.Int64
	DispatchCount      atomic.Int64
	DispatchErrors     atomic.Int64
	DispatchTotalNanos atomic.Int64
	SegmentsTotal      atomic.Int64
	ElementsTotal      atomic.Int64
	LaunchCount        atomic.Int64
	SmallSegments      atomic.Int64
	MediumSegments     atomic.Int64
	LargeSegments      atomic.Int64
}

// RecordSizing implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSizing(_, _ int, _ time.Duration, err error) {
	b.SizingCount.Add(1)
	if err != nil {
		b.SizingErrors.Add(1)
	}
}

// RecordDispatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDispatch(segments int, elements int64, launches int, duration time.Duration, err error) {
	b.DispatchCount.Add(1)
	b.DispatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DispatchErrors.Add(1)
		return
	}
	b.SegmentsTotal.Add(int64(segments))
	b.ElementsTotal.Add(elements)
	b.LaunchCount.Add(int64(launches))
}

// RecordLaunch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLaunch(class string, segments, _ int) {
	switch class {
	case "small":
		b.SmallSegments.Add(int64(segments))
	case "medium":
		b.MediumSegments.Add(int64(segments))
	case "large":
		b.LargeSegments.Add(int64(segments))
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SizingCount:      b.SizingCount.Load(),
		SizingErrors:     b.SizingErrors.Load(),
		DispatchCount:    b.DispatchCount.Load(),
		DispatchErrors:   b.DispatchErrors.Load(),
		DispatchAvgNanos: b.getAvgDispatchNanos(),
		SegmentsTotal:    b.SegmentsTotal.Load(),
		ElementsTotal:    b.ElementsTotal.Load(),
		LaunchCount:      b.LaunchCount.Load(),
		SmallSegments:    b.SmallSegments.Load(),
		MediumSegments:   b.MediumSegments.Load(),
		LargeSegments:    b.LargeSegments.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDispatchNanos() int64 {
	count := b.DispatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.DispatchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SizingCount      int64
	SizingErrors     int64
	DispatchCount    int64
	DispatchErrors   int64
	DispatchAvgNanos int64
	SegmentsTotal    int64
	ElementsTotal    int64
	LaunchCount      int64
	SmallSegments    int64
	MediumSegments   int64
	LargeSegments    int64
}
