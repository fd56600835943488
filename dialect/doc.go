// Package dialect defines the storage engine primitives the runtime depends on.
//
// The runtime only needs three things from a storage engine: execute a
// statement with parameters, return rows, and begin/commit/rollback a
// transaction. These are captured by the interfaces in this package:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Dialects
//
// Each dialect is identified by a constant string that also names the
// database/sql driver registered for it:
//
//	dialect.SQLite   = "sqlite"   // modernc.org/sqlite
//	dialect.Postgres = "postgres" // github.com/lib/pq
//	dialect.MySQL    = "mysql"    // github.com/go-sql-driver/mysql
//
// # Sub-packages
//
//   - dialect/sql: database/sql based driver, statement builder and error classification
//   - dialect/sql/schema: physical table model, DDL and the packet registry
//   - dialect/sql/sqlmap: declarative row mappings
package dialect
