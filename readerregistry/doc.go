// Package readerregistry provides lending.ActivityChecker implementations backed by real stores.
//
// SQLChecker reads a readers table through pgx, database/sql or sqlx. RedisChecker reads one key
// per reader. CachedChecker wraps either of them with an expiring LRU cache.
//
// A reader is active when a row exists for it with canceled_at IS NULL:
//
//	CREATE TABLE readers (
//	    reader_id     TEXT PRIMARY KEY,
//	    registered_at TIMESTAMPTZ NOT NULL,
//	    canceled_at   TIMESTAMPTZ NULL
//	);
//
// The checkers never surface store failures to the lending.Manager. A failed lookup answers
// false, is logged, and is forwarded to the ErrorHandler configured with WithErrorHandler.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	checker, err := readerregistry.NewSQLCheckerFromPGXPool(pool, readerregistry.WithTableName("readers"))
//	cached, err := readerregistry.NewCachedChecker(checker, 1024, time.Minute)
//	manager, err := lending.NewManager(cached, notifier)
package readerregistry
