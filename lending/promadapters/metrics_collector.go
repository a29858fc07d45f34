// Package promadapters provides a Prometheus implementation of lending.MetricsCollector
// for deployments that scrape metrics instead of pushing them through OpenTelemetry.
package promadapters

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// MetricsCollector maps lending metrics onto Prometheus vectors:
//   - RecordDuration -> HistogramVec (seconds)
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// A vector is registered on first use with the label names of that first call.
// Later calls for the same metric must use the same label names; calls that do not are dropped.
//
// The lending_available_copies gauge carries one series per book ID, so its series count
// grows with the catalog.
type MetricsCollector struct {
	registerer prometheus.Registerer
	namespace  string
	help       map[string]string
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes every metric name with namespace.
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// WithHelp sets the help text of metric. It must be applied before the metric is first recorded.
func WithHelp(metric, help string) Option {
	return func(m *MetricsCollector) {
		m.help[metric] = help
	}
}

// NewMetricsCollector creates a collector that registers its vectors on registerer.
// The lending metrics come with help texts; other metrics get theirs from WithHelp
// or fall back to their name.
func NewMetricsCollector(registerer prometheus.Registerer, opts ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		help: map[string]string{
			lending.OperationDurationMetric: "Duration of lending operations in seconds",
			lending.OperationCallsMetric:    "Lending operation calls by operation and outcome",
			lending.AvailableCopiesMetric:   "Available copies of a book after its last state change",
		},
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RecordDuration observes duration in seconds.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.histograms[metric]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.helpFor(metric),
			Buckets:   prometheus.DefBuckets,
		}, labelNames(labels))
		if !m.register(vec) {
			return
		}
		m.histograms[metric] = vec
	}

	observer, err := vec.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.counters[metric]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.helpFor(metric),
		}, labelNames(labels))
		if !m.register(vec) {
			return
		}
		m.counters[metric] = vec
	}

	counter, err := vec.GetMetricWith(labels)
	if err != nil {
		return
	}

	counter.Inc()
}

// RecordValue sets the gauge to value.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.gauges[metric]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.helpFor(metric),
		}, labelNames(labels))
		if !m.register(vec) {
			return
		}
		m.gauges[metric] = vec
	}

	gauge, err := vec.GetMetricWith(labels)
	if err != nil {
		return
	}

	gauge.Set(value)
}

func (m *MetricsCollector) helpFor(metric string) string {
	if help, ok := m.help[metric]; ok {
		return help
	}

	return strings.ReplaceAll(metric, "_", " ")
}

// register reports false when the registerer rejects the collector, e.g. because another
// collector already owns the name.
func (m *MetricsCollector) register(c prometheus.Collector) bool {
	if m.registerer == nil {
		return true
	}

	return m.registerer.Register(c) == nil
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

var _ lending.MetricsCollector = (*MetricsCollector)(nil)
