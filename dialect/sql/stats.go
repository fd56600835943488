package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/despencer/dbmeta/dialect"
)

// Counters holds statement counters of a DebugDriver.
type Counters struct {
	Queries atomic.Int64
	Execs   atomic.Int64
	Errors  atomic.Int64
	// Elapsed is the total statement time in nanoseconds.
	Elapsed atomic.Int64
}

// String returns a human-readable summary of the counters.
func (c *Counters) String() string {
	return fmt.Sprintf("queries=%d execs=%d errors=%d elapsed=%s",
		c.Queries.Load(), c.Execs.Load(), c.Errors.Load(), time.Duration(c.Elapsed.Load()))
}

// DebugDriver is a dialect.Driver that logs every statement, transaction
// boundary and failure to a structured logger and counts them.
type DebugDriver struct {
	dialect.Driver
	logger   *slog.Logger
	counters *Counters
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger statements are written to.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.logger = l
	}
}

// NewDebugDriver wraps drv with debug logging. Statements are logged at
// debug level, failures at warn level.
//
//	drv, _ := sql.Open(dialect.SQLite, "app.db")
//	client, _ := dbmeta.Open(dialect.SQLite, "app.db", dbmeta.Debug())
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver:   drv,
		logger:   slog.Default(),
		counters: &Counters{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Counters returns the statement counters of the driver and its transactions.
func (d *DebugDriver) Counters() *Counters { return d.counters }

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.record(ctx, "query", query, args, true, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.record(ctx, "exec", query, args, false, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "begin transaction failed", "error", err)
		return nil, err
	}
	d.logger.DebugContext(ctx, "begin transaction")
	return &DebugTx{Tx: tx, driver: d}, nil
}

func (d *DebugDriver) record(ctx context.Context, kind, query string, args any, isQuery bool, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if isQuery {
		d.counters.Queries.Add(1)
	} else {
		d.counters.Execs.Add(1)
	}
	d.counters.Elapsed.Add(int64(elapsed))
	if err != nil {
		d.counters.Errors.Add(1)
		d.logger.WarnContext(ctx, kind+" failed", "query", query, "args", args, "error", err)
		return err
	}
	d.logger.DebugContext(ctx, kind, "query", query, "args", args, "duration", elapsed)
	return nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	driver *DebugDriver
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.driver.record(ctx, "tx query", query, args, true, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.driver.record(ctx, "tx exec", query, args, false, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

// Dialect returns the dialect of the wrapped driver.
func (tx *DebugTx) Dialect() string { return tx.driver.Dialect() }

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.driver.logger.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.driver.logger.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
