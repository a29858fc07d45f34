package readerregistry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/readerregistry/internal/adapters"
)

const (
	colReaderID     = "reader_id"
	colRegisteredAt = "registered_at"
	colCanceledAt   = "canceled_at"
	aliasCount      = "active_count"
)

var errNoCountRow = errors.New("count query returned no row")

// SQLChecker answers reader activity from a readers table.
type SQLChecker struct {
	settings
	db adapters.DBAdapter
}

// NewSQLCheckerFromPGXPool creates a SQLChecker using a pgx Pool.
func NewSQLCheckerFromPGXPool(db *pgxpool.Pool, options ...Option) (*SQLChecker, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSQLChecker(adapters.NewPGXAdapter(db), options)
}

// NewSQLCheckerFromSQLDB creates a SQLChecker using a sql.DB.
// Pass WithDialect(DialectSQLite) when db is backed by SQLite.
func NewSQLCheckerFromSQLDB(db *sql.DB, options ...Option) (*SQLChecker, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSQLChecker(adapters.NewSQLAdapter(db), options)
}

// NewSQLCheckerFromSQLX creates a SQLChecker using a sqlx.DB.
func NewSQLCheckerFromSQLX(db *sqlx.DB, options ...Option) (*SQLChecker, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSQLChecker(adapters.NewSQLXAdapter(db), options)
}

func newSQLChecker(db adapters.DBAdapter, options []Option) (*SQLChecker, error) {
	c := &SQLChecker{settings: defaultSettings(), db: db}

	if err := c.apply(options); err != nil {
		return nil, err
	}

	return c, nil
}

// IsActive implements lending.ActivityChecker. Lookup failures answer false.
func (c *SQLChecker) IsActive(ctx context.Context, readerID string) bool {
	active, err := c.Lookup(ctx, readerID)
	if err != nil {
		c.reportFailure(ctx, backendSQL, readerID, err)
		return false
	}

	return active
}

// Lookup reports whether the reader has a registration that was not canceled.
func (c *SQLChecker) Lookup(ctx context.Context, readerID string) (bool, error) {
	var active bool

	err := c.retryLookup(ctx, backendSQL, func(ctx context.Context) error {
		var lookupErr error
		active, lookupErr = c.lookupOnce(ctx, readerID)

		return lookupErr
	})

	return active, err
}

func (c *SQLChecker) lookupOnce(ctx context.Context, readerID string) (bool, error) {
	sqlQuery, err := c.buildCountQuery(readerID)
	if err != nil {
		return false, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()

	rows, err := c.db.Query(ctx, sqlQuery)
	if err != nil {
		return false, fmt.Errorf("query readers: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, fmt.Errorf("read readers: %w", err)
		}

		return false, errNoCountRow
	}

	var count int64
	if err := rows.Scan(&count); err != nil {
		return false, fmt.Errorf("scan readers count: %w", err)
	}

	c.logSQL(ctx, logActionIsActive, sqlQuery, time.Since(start))

	return count > 0, nil
}

// Register marks the reader as active. A canceled reader is reactivated.
func (c *SQLChecker) Register(ctx context.Context, readerID string, registeredAt time.Time) error {
	if readerID == "" {
		return ErrEmptyReaderID
	}

	builder := goqu.Dialect(c.dialect)
	record := goqu.Record{colRegisteredAt: registeredAt.UTC(), colCanceledAt: nil}

	updateQuery, _, err := builder.Update(c.tableName).
		Set(record).
		Where(goqu.C(colReaderID).Eq(readerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build register update: %w", err)
	}

	affected, err := c.exec(ctx, logActionRegister, updateQuery)
	if err != nil {
		return err
	}

	if affected > 0 {
		return nil
	}

	record[colReaderID] = readerID

	insertQuery, _, err := builder.Insert(c.tableName).Rows(record).ToSQL()
	if err != nil {
		return fmt.Errorf("build register insert: %w", err)
	}

	_, err = c.exec(ctx, logActionRegister, insertQuery)

	return err
}

// Cancel marks the reader as canceled. Canceling an unknown reader is a no-op.
func (c *SQLChecker) Cancel(ctx context.Context, readerID string, canceledAt time.Time) error {
	if readerID == "" {
		return ErrEmptyReaderID
	}

	sqlQuery, _, err := goqu.Dialect(c.dialect).
		Update(c.tableName).
		Set(goqu.Record{colCanceledAt: canceledAt.UTC()}).
		Where(goqu.C(colReaderID).Eq(readerID), goqu.C(colCanceledAt).IsNull()).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build cancel update: %w", err)
	}

	_, err = c.exec(ctx, logActionCancel, sqlQuery)

	return err
}

// EnsureSchema creates the readers table if it does not exist.
func (c *SQLChecker) EnsureSchema(ctx context.Context) error {
	timestampType := "TIMESTAMPTZ"
	if c.dialect == DialectSQLite {
		timestampType = "TEXT"
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s %s NOT NULL, %s %s NULL)`,
		c.tableName, colReaderID, colRegisteredAt, timestampType, colCanceledAt, timestampType,
	)

	_, err := c.exec(ctx, logActionEnsureSchema, ddl)

	return err
}

func (c *SQLChecker) buildCountQuery(readerID string) (string, error) {
	sqlQuery, _, err := goqu.Dialect(c.dialect).
		From(c.tableName).
		Select(goqu.COUNT(goqu.Star()).As(aliasCount)).
		Where(goqu.C(colReaderID).Eq(readerID), goqu.C(colCanceledAt).IsNull()).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build count query: %w", err)
	}

	return sqlQuery, nil
}

func (c *SQLChecker) exec(ctx context.Context, action, sqlQuery string) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()

	result, err := c.db.Exec(ctx, sqlQuery)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", action, err)
	}

	c.logSQL(ctx, action, sqlQuery, time.Since(start))

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", action, err)
	}

	return affected, nil
}

var _ lending.ActivityChecker = (*SQLChecker)(nil)
