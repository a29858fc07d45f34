package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Arg returns the value logged for key, if present.
func (r SpyLogRecord) Arg(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// LoggerSpy captures basic and contextual logging calls for testing.
// It implements both lending.Logger and lending.ContextualLogger; basic calls are recorded with context.TODO().
type LoggerSpy struct {
	records []SpyLogRecord
	mu      sync.Mutex
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{records: make([]SpyLogRecord, 0)}
}

func (s *LoggerSpy) record(ctx context.Context, level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Debug implements lending.Logger.
func (s *LoggerSpy) Debug(msg string, args ...any) { s.record(context.TODO(), "debug", msg, args) }

// Info implements lending.Logger.
func (s *LoggerSpy) Info(msg string, args ...any) { s.record(context.TODO(), "info", msg, args) }

// Warn implements lending.Logger.
func (s *LoggerSpy) Warn(msg string, args ...any) { s.record(context.TODO(), "warn", msg, args) }

// Error implements lending.Logger.
func (s *LoggerSpy) Error(msg string, args ...any) { s.record(context.TODO(), "error", msg, args) }

// DebugContext implements lending.ContextualLogger.
func (s *LoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext implements lending.ContextualLogger.
func (s *LoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext implements lending.ContextualLogger.
func (s *LoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext implements lending.ContextualLogger.
func (s *LoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// Records returns a copy of all records in call order.
func (s *LoggerSpy) Records() []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyLogRecord(nil), s.records...)
}

// RecordsAt returns a copy of all records logged at level.
func (s *LoggerSpy) RecordsAt(level string) []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SpyLogRecord
	for _, r := range s.records {
		if r.Level == level {
			out = append(out, r)
		}
	}

	return out
}

// HasLog checks if a log with the specified level and message exists.
func (s *LoggerSpy) HasLog(level string, message string) bool {
	for _, r := range s.RecordsAt(level) {
		if r.Message == message {
			return true
		}
	}

	return false
}

var (
	_ lending.Logger           = (*LoggerSpy)(nil)
	_ lending.ContextualLogger = (*LoggerSpy)(nil)
)
