package oteladapters_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	reader, collector := setupMetricsCollector(t)
	labels := lending.BuildOperationLabels(lending.OperationBorrowBook, lending.OutcomeBorrowed)

	// act
	collector.RecordDuration(lending.OperationDurationMetric, 150*time.Millisecond, labels)

	// assert
	histogram := findHistogramMetric(t, collect(t, reader), lending.OperationDurationMetric)
	require.Len(t, histogram.DataPoints, 1, "Expected exactly one data point")

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001, "Duration should be recorded in seconds")

	expectedAttrs := attribute.NewSet(
		attribute.String(lending.LogAttrOperation, lending.OperationBorrowBook),
		attribute.String(lending.LogAttrOutcome, lending.OutcomeBorrowed),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs), "Attributes should match")
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// arrange
	reader, collector := setupMetricsCollector(t)
	labels := lending.BuildOperationLabels(lending.OperationReturnBook, lending.OutcomeNoLoan)

	// act
	collector.IncrementCounter(lending.OperationCallsMetric, labels)
	collector.IncrementCounterContext(context.Background(), lending.OperationCallsMetric, labels)
	collector.IncrementCounter(lending.OperationCallsMetric, labels)

	// assert
	counter := findCounterMetric(t, collect(t, reader), lending.OperationCallsMetric)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// arrange
	reader, collector := setupMetricsCollector(t)
	labels := map[string]string{lending.LogAttrBookID: "1984"}

	// act
	collector.RecordValue(lending.AvailableCopiesMetric, 10, labels)
	collector.RecordValueContext(context.Background(), lending.AvailableCopiesMetric, 9, labels)

	// assert
	gauge := findGaugeMetric(t, collect(t, reader), lending.AvailableCopiesMetric)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 9.0, gauge.DataPoints[0].Value, "Gauge should keep the last value")
}

func Test_MetricsCollector_InstrumentCreationFailureIsIgnored(t *testing.T) {
	// arrange
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	collector := oteladapters.NewMetricsCollector(&errorInjectingMeter{Meter: provider.Meter("test")})

	// act + assert
	assert.NotPanics(t, func() {
		collector.RecordDuration("error_instrument", time.Second, nil)
		collector.IncrementCounter("error_instrument", nil)
		collector.RecordValue("error_instrument", 1, nil)
	})
}

func Test_MetricsCollector_WithManager(t *testing.T) {
	// arrange
	reader, collector := setupMetricsCollector(t)
	checker := lending.ActivityCheckerFunc(func(context.Context, string) bool { return true })
	notifier := lending.NotifierFunc(func(context.Context, string, string) {})

	manager, err := lending.NewManager(checker, notifier, lending.WithMetrics(collector))
	require.NoError(t, err)
	manager.AddBook("1984", 10)

	// act
	manager.BorrowBook(context.Background(), "1984", "777")

	// assert
	resourceMetrics := collect(t, reader)
	counter := findCounterMetric(t, resourceMetrics, lending.OperationCallsMetric)
	assert.Len(t, counter.DataPoints, 2, "add_book/added and borrow_book/borrowed series expected")

	gauge := findGaugeMetric(t, resourceMetrics, lending.AvailableCopiesMetric)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 9.0, gauge.DataPoints[0].Value)
}

// Test helper functions

type errorInjectingMeter struct {
	metric.Meter
}

func (m *errorInjectingMeter) Float64Histogram(name string, options ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	if name == "error_instrument" {
		return nil, errors.New("histogram creation failed")
	}
	return m.Meter.Float64Histogram(name, options...)
}

func (m *errorInjectingMeter) Int64Counter(name string, options ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	if name == "error_instrument" {
		return nil, errors.New("counter creation failed")
	}
	return m.Meter.Int64Counter(name, options...)
}

func (m *errorInjectingMeter) Float64Gauge(name string, options ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	if name == "error_instrument" {
		return nil, errors.New("gauge creation failed")
	}
	return m.Meter.Float64Gauge(name, options...)
}

func setupMetricsCollector(t *testing.T) (*sdkmetric.ManualReader, *oteladapters.MetricsCollector) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return reader, oteladapters.NewMetricsCollector(provider.Meter("lending-test"))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "Failed to collect metrics")

	return resourceMetrics
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Histogram[float64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return &h
			}
		}
	}
	t.Fatalf("Histogram metric %s not found", name)
	return nil
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Sum[int64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return &c
			}
		}
	}
	t.Fatalf("Counter metric %s not found", name)
	return nil
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Gauge[float64] {
	t.Helper()
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return &g
			}
		}
	}
	t.Fatalf("Gauge metric %s not found", name)
	return nil
}
