package readerregistry

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	logMsgLookupFailed    = "reader activity lookup failed"
	logMsgSQLExecuted     = "executed sql for: "
	logMsgCacheHit        = "reader activity served from cache"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrReaderID       = "reader_id"
	logAttrBackend        = "backend"
	logAttrDurationMS     = "duration_ms"
	logActionIsActive     = "is_active"
	logActionRegister     = "register"
	logActionCancel       = "cancel"
	logActionEnsureSchema = "ensure_schema"
	backendSQL            = "sql"
	backendRedis          = "redis"
	backendCache          = "cache"
)

func (s *settings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *settings) logSQL(ctx context.Context, action, query string, duration time.Duration) {
	args := []any{logAttrQuery, query, logAttrDurationMS, float64(duration.Nanoseconds()) / 1e6}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	} else if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, args...)
	}
}

func (s *settings) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// reportFailure logs a swallowed lookup failure and forwards it to the error handler.
func (s *settings) reportFailure(ctx context.Context, backend, readerID string, err error) {
	args := []any{logAttrBackend, backend, logAttrReaderID, readerID, logAttrError, err.Error()}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, logMsgLookupFailed, args...)
	} else if s.logger != nil {
		s.logger.Error(logMsgLookupFailed, args...)
	}

	s.incrementCounter(ctx, LookupFailuresMetric, map[string]string{
		labelBackend:   backend,
		labelErrorType: errorType(err),
	})

	if s.errorHandler != nil {
		s.errorHandler(ctx, readerID, err)
	}
}

func (s *settings) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}
