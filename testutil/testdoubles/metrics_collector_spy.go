package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// SpyMetricRecord represents a recorded metric call of any kind.
// Duration is set for duration records, Value for value records.
type SpyMetricRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures metrics calls for testing.
// It implements lending.ContextualMetricsCollector; the context-aware methods record the same way.
type MetricsCollectorSpy struct {
	records []SpyMetricRecord
	mu      sync.Mutex
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{records: make([]SpyMetricRecord, 0)}
}

func (s *MetricsCollectorSpy) record(r SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy labels to avoid external modifications
	r.Labels = maps.Clone(r.Labels)
	s.records = append(s.records, r)
}

// RecordDuration implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "counter", Metric: metric, Labels: labels})
}

// RecordValue implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels})
}

// RecordDurationContext implements lending.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext implements lending.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.IncrementCounter(metric, labels)
}

// RecordValueContext implements lending.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.RecordValue(metric, value, labels)
}

// RecordsFor returns a copy of all records for metric in call order.
func (s *MetricsCollectorSpy) RecordsFor(metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SpyMetricRecord
	for _, r := range s.records {
		if r.Metric == metric {
			out = append(out, r)
		}
	}

	return out
}

// CounterCount returns how often metric was incremented with labels containing all of the given labels.
func (s *MetricsCollectorSpy) CounterCount(metric string, labels map[string]string) int {
	n := 0
	for _, r := range s.RecordsFor(metric) {
		if r.Kind == "counter" && containsLabels(r.Labels, labels) {
			n++
		}
	}

	return n
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}

var _ lending.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)
