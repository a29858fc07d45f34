package readerregistry

import (
	"context"
	"regexp"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// DialectPostgres renders SQL for PostgreSQL (pgx, lib/pq, sqlx).
	DialectPostgres = "postgres"

	// DialectSQLite renders SQL for SQLite (modernc.org/sqlite).
	DialectSQLite = "sqlite3"

	defaultTableName    = "readers"
	defaultKeyPrefix    = "lending:reader:"
	defaultQueryTimeout = 2 * time.Second
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrorHandler receives every store failure a checker swallowed while answering IsActive.
type ErrorHandler func(ctx context.Context, readerID string, err error)

// settings holds the configuration shared by all checkers. Each checker reads the fields it needs.
type settings struct {
	tableName        string
	dialect          string
	keyPrefix        string
	queryTimeout     time.Duration
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	errorHandler     ErrorHandler
	metricsCollector lending.MetricsCollector
	retry            retryPolicy
}

func defaultSettings() settings {
	return settings{
		tableName:    defaultTableName,
		dialect:      DialectPostgres,
		keyPrefix:    defaultKeyPrefix,
		queryTimeout: defaultQueryTimeout,
		retry: retryPolicy{
			maxAttempts:  defaultMaxAttempts,
			baseDelay:    defaultBaseDelay,
			jitterFactor: defaultJitterFactor,
		},
	}
}

func (s *settings) apply(options []Option) error {
	for _, option := range options {
		if err := option(s); err != nil {
			return err
		}
	}

	return nil
}

// Option defines a functional option for configuring a checker.
type Option func(*settings) error

// WithTableName sets the readers table used by SQLChecker.
func WithTableName(tableName string) Option {
	return func(s *settings) error {
		if !tableNamePattern.MatchString(tableName) {
			return ErrInvalidTableName
		}

		s.tableName = tableName

		return nil
	}
}

// WithDialect sets the SQL dialect used by SQLChecker: DialectPostgres (default) or DialectSQLite.
func WithDialect(dialect string) Option {
	return func(s *settings) error {
		switch dialect {
		case DialectPostgres, DialectSQLite:
			s.dialect = dialect
			return nil
		default:
			return ErrUnsupportedDialect
		}
	}
}

// WithKeyPrefix sets the key prefix used by RedisChecker.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) error {
		if prefix == "" {
			return ErrEmptyKeyPrefix
		}

		s.keyPrefix = prefix

		return nil
	}
}

// WithQueryTimeout bounds each store round trip. Zero disables the bound.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *settings) error {
		if timeout < 0 {
			return ErrNegativeQueryTimeout
		}

		s.queryTimeout = timeout

		return nil
	}
}

// WithLogger sets the basic logger.
// Debug level: executed statements. Error level: failed lookups.
func WithLogger(logger lending.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger. It takes precedence over the basic logger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(s *settings) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithErrorHandler sets the handler that receives swallowed lookup failures.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(s *settings) error {
		s.errorHandler = handler
		return nil
	}
}

// WithMetrics sets the collector for retry and failure counters.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *settings) error {
		s.metricsCollector = collector
		return nil
	}
}
