// Package adapters provides the database adapters behind readerregistry.SQLChecker.
//
// pgxpool.Pool, sql.DB and sqlx.DB are wrapped behind one DBAdapter interface so that the
// checker builds its SQL once and runs it on whichever connection type the caller owns.
package adapters
