package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

const (
	defaultMaxConnections      = int32(20)
	defaultMinConnections      = int32(2)
	defaultMaxIdleConnections  = 2
	defaultMaxConnLifetime     = time.Hour
	defaultMaxConnIdleTime     = time.Minute * 5
	defaultHealthCheckPeriod   = time.Minute
	defaultConnectTimeout      = time.Second * 5
	sqliteMemoryPath           = ":memory:"
	sqliteBusyTimeoutPragma    = "PRAGMA busy_timeout = 5000;"
	sqliteJournalModeWALPragma = "PRAGMA journal_mode = WAL;"
)

// PostgresPGXPoolConfig parses dsn into a tuned pgxpool.Config.
func PostgresPGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// OpenPostgresPGXPool opens and pings a tuned pgx pool.
func OpenPostgresPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := PostgresPGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// OpenPostgresSQLDB opens and pings a tuned *sql.DB using lib/pq.
func OpenPostgresSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	tuneSQLDB(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// OpenPostgresSQLX opens and pings a tuned *sqlx.DB using lib/pq.
func OpenPostgresSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := OpenPostgresSQLDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return sqlx.NewDb(db, "postgres"), nil
}

// OpenSQLite opens a SQLite database with modernc.org/sqlite.
// In-memory databases are limited to one connection so every query sees the same database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{sqliteBusyTimeoutPragma}

	if path == sqliteMemoryPath {
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, sqliteJournalModeWALPragma)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite pragma: %w", err)
		}
	}

	return db, nil
}

func tuneSQLDB(db *sql.DB) {
	db.SetMaxOpenConns(int(defaultMaxConnections))
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}
