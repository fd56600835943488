// Package sql implements the dialect.Driver primitives on top of database/sql.
//
// A Driver wraps a *sql.DB opened for one of the dialects in package dialect.
// SQLite connections are opened with foreign key enforcement and a single
// connection, matching the single writer model of the runtime:
//
//	drv, err := sql.Open(dialect.SQLite, "app")   // opens app.db
//	if err != nil {
//		return err
//	}
//	rows, err := sql.QueryValues(ctx, drv, "SELECT id FROM seqid_seq")
//
// # Statements
//
// The statement builders quote identifiers and write placeholders for the
// driver dialect. Predicates are written with '?' markers and renumbered for
// PostgreSQL:
//
//	query, args := sql.Select("id", "total").
//		Dialect(dialect.Postgres).
//		From("app_Invoice").
//		Where("id = ?", 1).
//		Query()
//	// SELECT "id", "total" FROM "app_Invoice" WHERE id = $1
//
// # Errors
//
// IsTableNotFound recognizes the "object not found" signal of the supported
// drivers. The packet engine uses it to detect a database that has never been
// bootstrapped. The constraint helpers classify unique, foreign key and check
// violations.
//
// # Debugging
//
// NewDebugDriver wraps any dialect.Driver and logs every statement through
// log/slog.
package sql
