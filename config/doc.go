// Package config loads the runtime configuration of a lending deployment and builds the
// connections and observability providers it needs.
//
// Load reads LENDING_* environment variables, falling back to values from .env files
// (github.com/joho/godotenv) and then to defaults. Real environment variables always win
// over file values, and loading never mutates the process environment.
//
// The connection helpers return pgx pools, database/sql handles (lib/pq, modernc sqlite),
// sqlx handles and redis clients tuned the same way for every backend.
package config
