package lending

import (
	"context"
	"fmt"
	"time"
)

const (
	// OperationDurationMetric tracks the duration of manager operations (OpenTelemetry-compatible).
	OperationDurationMetric = "lending_operation_duration_seconds"

	// OperationCallsMetric tracks total manager operation calls.
	OperationCallsMetric = "lending_operation_calls_total"

	// AvailableCopiesMetric tracks the available copies of a book after each state change.
	AvailableCopiesMetric = "lending_available_copies"

	// OperationAddBook identifies AddBook in metrics, spans and logs.
	OperationAddBook = "add_book"

	// OperationBorrowBook identifies BorrowBook in metrics, spans and logs.
	OperationBorrowBook = "borrow_book"

	// OperationReturnBook identifies ReturnBook in metrics, spans and logs.
	OperationReturnBook = "return_book"

	// OutcomeAdded indicates copies were added to the catalog.
	OutcomeAdded = "added"

	// OutcomeIgnoredNegativeAmount indicates AddBook ignored a negative amount that would drop the copies below zero.
	OutcomeIgnoredNegativeAmount = "ignored_negative_amount"

	// OutcomeBorrowed indicates a successful borrow.
	OutcomeBorrowed = "borrowed"

	// OutcomeReturned indicates a successful return.
	OutcomeReturned = "returned"

	// OutcomeBookUnknown indicates the book ID is not in the catalog.
	OutcomeBookUnknown = "book_unknown"

	// OutcomeReaderInactive indicates the activity checker rejected the reader.
	OutcomeReaderInactive = "reader_inactive"

	// OutcomeNoCopiesAvailable indicates the book has no available copies.
	OutcomeNoCopiesAvailable = "no_copies_available"

	// OutcomeNoLoan indicates there is no outstanding loan for the book ID.
	OutcomeNoLoan = "no_loan"

	// OutcomeWrongReader indicates the outstanding loan belongs to another reader.
	OutcomeWrongReader = "wrong_reader"

	// StatusSuccess marks spans of operations that changed state.
	StatusSuccess = "success"

	// StatusRejected marks spans of operations that were rejected by a business rule.
	StatusRejected = "rejected"

	// SpanNameBorrowBook is the tracing span name for BorrowBook.
	SpanNameBorrowBook = "lending.borrow_book"

	// SpanNameReturnBook is the tracing span name for ReturnBook.
	SpanNameReturnBook = "lending.return_book"

	// LogMsgOperationCompleted is logged when an operation changed state.
	LogMsgOperationCompleted = "lending operation completed"

	// LogMsgOperationRejected is logged when a business rule rejected an operation.
	LogMsgOperationRejected = "lending operation rejected"

	// LogAttrOperation identifies the operation in logs and metric labels.
	LogAttrOperation = "operation"

	// LogAttrOutcome classifies the business result.
	LogAttrOutcome = "outcome"

	// LogAttrStatus carries span statuses that have no tracing-backend equivalent, such as rejected.
	LogAttrStatus = "status"

	// LogAttrBookID identifies the book in logs.
	LogAttrBookID = "book_id"

	// LogAttrReaderID identifies the reader in logs.
	LogAttrReaderID = "reader_id"

	// LogAttrCopies carries the number of copies.
	LogAttrCopies = "copies"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"
)

// Logger interface for basic operational logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// It follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// so any logging backend that supports context-based correlation can be plugged in.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting lending performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for trace correlation.
// The Manager uses the context-aware methods when available and falls back to MetricsCollector otherwise.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from lending operations.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// observation bundles what one operation reports once it has decided its outcome.
type observation struct {
	operation string
	bookID    string
	readerID  string
	outcome   string
	copies    int
	started   time.Time
	span      SpanContext
}

// BuildOperationLabels creates the standard metric labels for a lending operation.
func BuildOperationLabels(operation, outcome string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrOutcome:   outcome,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func (m *Manager) startSpan(ctx context.Context, name, bookID, readerID string) (context.Context, SpanContext) {
	if m.tracingCollector == nil {
		return ctx, nil
	}

	return m.tracingCollector.StartSpan(ctx, name, map[string]string{
		LogAttrBookID:   bookID,
		LogAttrReaderID: readerID,
	})
}

// observe records metrics, finishes the span and logs the outcome of one operation.
func (m *Manager) observe(ctx context.Context, o observation, stateChanged bool) {
	duration := time.Since(o.started)

	m.recordMetrics(ctx, o, duration, stateChanged)
	m.finishSpan(o, duration, stateChanged)
	m.logOutcome(ctx, o, duration, stateChanged)
}

func (m *Manager) recordMetrics(ctx context.Context, o observation, duration time.Duration, stateChanged bool) {
	if m.metricsCollector == nil {
		return
	}

	labels := BuildOperationLabels(o.operation, o.outcome)
	copiesLabels := map[string]string{LogAttrBookID: o.bookID}

	if contextual, ok := m.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		contextual.IncrementCounterContext(ctx, OperationCallsMetric, labels)

		if stateChanged {
			contextual.RecordValueContext(ctx, AvailableCopiesMetric, float64(o.copies), copiesLabels)
		}

		return
	}

	m.metricsCollector.RecordDuration(OperationDurationMetric, duration, labels)
	m.metricsCollector.IncrementCounter(OperationCallsMetric, labels)

	if stateChanged {
		m.metricsCollector.RecordValue(AvailableCopiesMetric, float64(o.copies), copiesLabels)
	}
}

func (m *Manager) finishSpan(o observation, duration time.Duration, stateChanged bool) {
	if m.tracingCollector == nil || o.span == nil {
		return
	}

	status := StatusRejected
	if stateChanged {
		status = StatusSuccess
	}

	m.tracingCollector.FinishSpan(o.span, status, map[string]string{
		LogAttrOutcome:    o.outcome,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	})
}

func (m *Manager) logOutcome(ctx context.Context, o observation, duration time.Duration, stateChanged bool) {
	args := []any{
		LogAttrOperation, o.operation,
		LogAttrBookID, o.bookID,
		LogAttrOutcome, o.outcome,
		LogAttrCopies, o.copies,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if o.readerID != "" {
		args = append(args, LogAttrReaderID, o.readerID)
	}

	msg := LogMsgOperationRejected
	if stateChanged {
		msg = LogMsgOperationCompleted
	}

	switch {
	case m.contextualLogger != nil && stateChanged:
		m.contextualLogger.InfoContext(ctx, msg, args...)
	case m.contextualLogger != nil:
		m.contextualLogger.DebugContext(ctx, msg, args...)
	case m.logger != nil && stateChanged:
		m.logger.Info(msg, args...)
	case m.logger != nil:
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) warn(ctx context.Context, msg string, args ...any) {
	if m.contextualLogger != nil {
		m.contextualLogger.WarnContext(ctx, msg, args...)
	} else if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
