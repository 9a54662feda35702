// Package metrics provides performance instrumentation for bugdash.
//
// Timing metrics cover the hot paths: re-deriving the table view, loading
// data sources, and decoding records. Metrics are collected in-memory with
// atomic operations so loaders running in parallel can record safely.
// Collection is enabled by default but can be disabled via BUGDASH_METRICS=0.
//
// Usage:
//
//	func recompute() {
//	    defer metrics.Timer(metrics.FilterRecompute)()
//	    // ... operation code
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("BUGDASH_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks count, total, min and max duration for a named
// operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)

	for {
		old := m.max.Load()
		if ns <= old || m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.min.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Stats returns a snapshot of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := time.Duration(m.total.Load())
	var avg time.Duration
	if count > 0 {
		avg = total / time.Duration(count)
	}
	return TimingStats{
		Name:  m.name,
		Count: count,
		Total: total,
		Avg:   avg,
		Max:   time.Duration(m.max.Load()),
		Min:   time.Duration(m.min.Load()),
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is a snapshot of a TimingMetric.
type TimingStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Avg   time.Duration `json:"avg"`
	Max   time.Duration `json:"max"`
	Min   time.Duration `json:"min,omitempty"`
}

// Timer returns a function that records elapsed time when called.
// Use with defer for automatic timing:
//
//	defer metrics.Timer(metrics.DataLoad)()
func Timer(m *TimingMetric) func() {
	return TimerWithCallback(m, nil)
}

// TimerWithCallback is Timer that also hands the duration to cb.
func TimerWithCallback(m *TimingMetric, cb func(time.Duration)) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.Record(d)
		if cb != nil {
			cb(d)
		}
	}
}

// Global timing metrics.
var (
	FilterRecompute = newTimingMetric("filter_recompute")
	DataLoad        = newTimingMetric("data_load")
	JSONParsing     = newTimingMetric("json_parsing")
	YAMLParsing     = newTimingMetric("yaml_parsing")
	SQLiteQuery     = newTimingMetric("sqlite_query")
	UIRender        = newTimingMetric("ui_render")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		FilterRecompute,
		DataLoad,
		JSONParsing,
		YAMLParsing,
		SQLiteQuery,
		UIRender,
	}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for metrics that have recorded data.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// LogSummary writes one debug record per metric with data.
func LogSummary(l *zap.Logger) {
	for _, s := range AllTimingStats() {
		l.Debug("timing summary",
			zap.String("metric", s.Name),
			zap.Int64("count", s.Count),
			zap.Duration("avg", s.Avg),
			zap.Duration("max", s.Max),
			zap.Duration("min", s.Min),
		)
	}
}
