package readerregistry_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/readerregistry"
	"github.com/AntonStoeckl/library-lending-go/testutil/testdoubles"
)

const (
	readerActive   = "777"
	readerCanceled = "888"
	readerUnknown  = "999"
)

func Test_SQLChecker_WithSQLiteDB_AnswersReaderActivity(t *testing.T) {
	// arrange
	ctx := context.Background()
	checker := setupSQLiteChecker(t)
	registerReaders(t, checker)

	// act + assert
	assert.True(t, checker.IsActive(ctx, readerActive), "Registered reader should be active")
	assert.False(t, checker.IsActive(ctx, readerCanceled), "Canceled reader should be inactive")
	assert.False(t, checker.IsActive(ctx, readerUnknown), "Unknown reader should be inactive")
}

func Test_SQLChecker_WithSQLX_AnswersReaderActivity(t *testing.T) {
	// arrange
	ctx := context.Background()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	checker, err := readerregistry.NewSQLCheckerFromSQLX(db, readerregistry.WithDialect(readerregistry.DialectSQLite))
	require.NoError(t, err)
	require.NoError(t, checker.EnsureSchema(ctx))
	registerReaders(t, checker)

	// act + assert
	assert.True(t, checker.IsActive(ctx, readerActive))
	assert.False(t, checker.IsActive(ctx, readerCanceled))
}

func Test_SQLChecker_RegisterReactivatesCanceledReader(t *testing.T) {
	// arrange
	ctx := context.Background()
	checker := setupSQLiteChecker(t)
	registerReaders(t, checker)

	// act
	err := checker.Register(ctx, readerCanceled, time.Now())

	// assert
	require.NoError(t, err)
	assert.True(t, checker.IsActive(ctx, readerCanceled), "Re-registered reader should be active again")
}

func Test_SQLChecker_CancelUnknownReaderIsNoop(t *testing.T) {
	// arrange
	checker := setupSQLiteChecker(t)

	// act
	err := checker.Cancel(context.Background(), readerUnknown, time.Now())

	// assert
	assert.NoError(t, err)
	assert.False(t, checker.IsActive(context.Background(), readerUnknown))
}

func Test_SQLChecker_QuotesReaderIDs(t *testing.T) {
	// arrange
	ctx := context.Background()
	checker := setupSQLiteChecker(t)
	require.NoError(t, checker.Register(ctx, "o'brien", time.Now()))

	// act + assert
	assert.True(t, checker.IsActive(ctx, "o'brien"), "Quotes in reader ids must round-trip")
	assert.False(t, checker.IsActive(ctx, "x' OR '1'='1"), "Reader ids must never be interpreted as SQL")
}

func Test_SQLChecker_WithTableName(t *testing.T) {
	// arrange
	ctx := context.Background()
	db := openSQLiteDB(t)
	checker, err := readerregistry.NewSQLCheckerFromSQLDB(db,
		readerregistry.WithDialect(readerregistry.DialectSQLite),
		readerregistry.WithTableName("library_readers"),
	)
	require.NoError(t, err)
	require.NoError(t, checker.EnsureSchema(ctx))

	// act
	require.NoError(t, checker.Register(ctx, readerActive, time.Now()))

	// assert
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM library_readers`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.True(t, checker.IsActive(ctx, readerActive))
}

func Test_SQLChecker_FailsClosedOnDatabaseError(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	handled := &handledErrors{}
	db := openSQLiteDB(t)
	checker, err := readerregistry.NewSQLCheckerFromSQLDB(db,
		readerregistry.WithDialect(readerregistry.DialectSQLite),
		readerregistry.WithLogger(logger),
		readerregistry.WithErrorHandler(handled.record),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// act
	active := checker.IsActive(context.Background(), readerActive)

	// assert
	assert.False(t, active, "A failed lookup should answer inactive")
	assert.Equal(t, []string{readerActive}, handled.readerIDs(), "The failure should reach the error handler")
	assert.Len(t, logger.RecordsAt("error"), 1, "The failure should be logged at error level")

	_, lookupErr := checker.Lookup(context.Background(), readerActive)
	assert.Error(t, lookupErr, "Lookup should surface the failure")
}

func Test_SQLChecker_RetriesAndCountsFailures(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	db := openSQLiteDB(t)
	checker, err := readerregistry.NewSQLCheckerFromSQLDB(db,
		readerregistry.WithDialect(readerregistry.DialectSQLite),
		readerregistry.WithRetry(3, time.Millisecond),
		readerregistry.WithMetrics(metrics),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// act
	active := checker.IsActive(context.Background(), readerActive)

	// assert
	assert.False(t, active)
	assert.Len(t, metrics.RecordsFor(readerregistry.LookupRetriesMetric), 2, "Three attempts mean two retries")
	assert.Equal(t, 1, metrics.CounterCount(readerregistry.LookupFailuresMetric, map[string]string{"backend": "sql", "error_type": "other"}))
}

func Test_SQLChecker_MissingTableFailsClosed(t *testing.T) {
	// arrange
	handled := &handledErrors{}
	checker, err := readerregistry.NewSQLCheckerFromSQLDB(openSQLiteDB(t),
		readerregistry.WithDialect(readerregistry.DialectSQLite),
		readerregistry.WithErrorHandler(handled.record),
	)
	require.NoError(t, err)

	// act
	active := checker.IsActive(context.Background(), readerActive)

	// assert
	assert.False(t, active)
	assert.Len(t, handled.readerIDs(), 1)
}

func Test_SQLChecker_LogsExecutedSQLAtDebug(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	db := openSQLiteDB(t)
	checker, err := readerregistry.NewSQLCheckerFromSQLDB(db,
		readerregistry.WithDialect(readerregistry.DialectSQLite),
		readerregistry.WithContextualLogger(logger),
	)
	require.NoError(t, err)
	require.NoError(t, checker.EnsureSchema(context.Background()))

	// act
	checker.IsActive(context.Background(), readerActive)

	// assert
	assert.True(t, logger.HasLog("debug", "executed sql for: is_active"))
}

func Test_SQLChecker_ConstructorRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		build       func() error
		expectedErr error
	}{
		{
			name: "nil sql.DB",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLDB(nil)
				return err
			},
			expectedErr: readerregistry.ErrNilDatabaseConnection,
		},
		{
			name: "nil sqlx.DB",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLX(nil)
				return err
			},
			expectedErr: readerregistry.ErrNilDatabaseConnection,
		},
		{
			name: "nil pgx pool",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromPGXPool(nil)
				return err
			},
			expectedErr: readerregistry.ErrNilDatabaseConnection,
		},
		{
			name: "table name with sql",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLDB(&sql.DB{}, readerregistry.WithTableName("readers; DROP TABLE x"))
				return err
			},
			expectedErr: readerregistry.ErrInvalidTableName,
		},
		{
			name: "empty table name",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLDB(&sql.DB{}, readerregistry.WithTableName(""))
				return err
			},
			expectedErr: readerregistry.ErrInvalidTableName,
		},
		{
			name: "unknown dialect",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLDB(&sql.DB{}, readerregistry.WithDialect("mysql"))
				return err
			},
			expectedErr: readerregistry.ErrUnsupportedDialect,
		},
		{
			name: "negative timeout",
			build: func() error {
				_, err := readerregistry.NewSQLCheckerFromSQLDB(&sql.DB{}, readerregistry.WithQueryTimeout(-time.Second))
				return err
			},
			expectedErr: readerregistry.ErrNegativeQueryTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.build(), tt.expectedErr)
		})
	}
}

func Test_SQLChecker_RejectsEmptyReaderID(t *testing.T) {
	// arrange
	checker := setupSQLiteChecker(t)

	// act + assert
	assert.ErrorIs(t, checker.Register(context.Background(), "", time.Now()), readerregistry.ErrEmptyReaderID)
	assert.ErrorIs(t, checker.Cancel(context.Background(), "", time.Now()), readerregistry.ErrEmptyReaderID)
}

func Test_SQLChecker_DrivesManagerBorrowing(t *testing.T) {
	// arrange
	ctx := context.Background()
	checker := setupSQLiteChecker(t)
	registerReaders(t, checker)
	notifier := testdoubles.NewNotifierSpy()

	manager, err := lending.NewManager(checker, notifier)
	require.NoError(t, err)
	manager.AddBook("1984", 10)

	// act
	borrowedByActive := manager.BorrowBook(ctx, "1984", readerActive)
	borrowedByCanceled := manager.BorrowBook(ctx, "1984", readerCanceled)

	// assert
	assert.True(t, borrowedByActive)
	assert.False(t, borrowedByCanceled)
	assert.Equal(t, 9, manager.AvailableCopies("1984"))
	assert.Equal(t, 1, notifier.CountOf(readerCanceled, lending.MsgAccountNotActive))
}

// Test helper functions

func openSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	// every connection of an in-memory database would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func setupSQLiteChecker(t *testing.T) *readerregistry.SQLChecker {
	t.Helper()

	checker, err := readerregistry.NewSQLCheckerFromSQLDB(openSQLiteDB(t), readerregistry.WithDialect(readerregistry.DialectSQLite))
	require.NoError(t, err)
	require.NoError(t, checker.EnsureSchema(context.Background()))

	return checker
}

func registerReaders(t *testing.T, checker *readerregistry.SQLChecker) {
	t.Helper()

	ctx := context.Background()
	registeredAt := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, checker.Register(ctx, readerActive, registeredAt))
	require.NoError(t, checker.Register(ctx, readerCanceled, registeredAt))
	require.NoError(t, checker.Cancel(ctx, readerCanceled, registeredAt.Add(24*time.Hour)))
}

type handledErrors struct {
	mu  sync.Mutex
	ids []string
}

func (h *handledErrors) record(_ context.Context, readerID string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ids = append(h.ids, readerID)
}

func (h *handledErrors) readerIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.ids...)
}
