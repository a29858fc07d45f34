package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// SpySpanContext implements lending.SpanContext for testing.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

// SetStatus implements lending.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// AddAttribute implements lending.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}
	c.attributes[key] = value
}

// SpySpanRecord represents a started span and, once finished, its outcome.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	SpanContext     *SpySpanContext
}

// TracingCollectorSpy captures tracing calls for testing.
type TracingCollectorSpy struct {
	spans []*SpySpanRecord
	mu    sync.Mutex
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{spans: make([]*SpySpanRecord, 0)}
}

// StartSpan implements lending.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, lending.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpySpanContext{}
	s.spans = append(s.spans, &SpySpanRecord{
		Name:            name,
		StartAttributes: maps.Clone(attrs),
		SpanContext:     spanCtx,
	})

	return ctx, spanCtx
}

// FinishSpan implements lending.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		if span.SpanContext == spanCtx {
			span.Status = status
			span.EndAttributes = maps.Clone(attrs)
			span.Finished = true
		}
	}
}

// Spans returns copies of all recorded spans in start order.
func (s *TracingCollectorSpy) Spans() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SpySpanRecord, 0, len(s.spans))
	for _, span := range s.spans {
		out = append(out, *span)
	}

	return out
}

var _ lending.TracingCollector = (*TracingCollectorSpy)(nil)
