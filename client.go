package dbmeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ariga.io/atlas/sql/migrate"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

// Client is an open database with a bootstrapped packet registry and id
// sequence. It serves one logical writer at a time.
type Client struct {
	driver    dialect.Driver
	packaging *schema.Packaging
	logger    *slog.Logger
	counters  *sql.Counters
}

type options struct {
	logger *slog.Logger
	debug  bool
	now    func() time.Time
}

// Option configures the client.
type Option func(*options)

// Log sets the logger of the client. The default is slog.Default().
func Log(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Debug logs every statement at debug level and counts them.
func Debug() Option {
	return func(o *options) {
		o.debug = true
	}
}

// Clock sets the clock used for packet deploy timestamps.
func Clock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Open opens the database and bootstraps it on first use.
//
//	client, err := dbmeta.Open(dialect.SQLite, "app.db")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
func Open(driverName, dsn string, opts ...Option) (*Client, error) {
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbmeta: open %s: %w", driverName, err)
	}
	c, err := NewClient(context.Background(), drv, opts...)
	if err != nil {
		return nil, errors.Join(err, drv.Close())
	}
	return c, nil
}

// NewClient returns a client over an open driver. A database without the
// packet registry is bootstrapped: the registry is created and the
// registry marker and id sequence packets are deployed.
func NewClient(ctx context.Context, drv dialect.Driver, opts ...Option) (*Client, error) {
	o := &options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	c := &Client{logger: o.logger}
	if o.debug {
		d := sql.NewDebugDriver(drv, sql.DebugWithLogger(o.logger))
		c.counters = d.Counters()
		drv = d
	}
	c.driver = drv
	c.packaging = schema.NewPackaging(drv, schema.WithLogger(o.logger), schema.WithClock(o.now))
	if err := c.packaging.Check(ctx); err != nil {
		return nil, fmt.Errorf("dbmeta: bootstrap: %w", err)
	}
	return c, nil
}

// Dialect returns the dialect of the database.
func (c *Client) Dialect() string { return c.driver.Dialect() }

// Driver returns the underlying driver.
func (c *Client) Driver() dialect.Driver { return c.driver }

// Counters returns the statement counters, or nil without Debug.
func (c *Client) Counters() *sql.Counters { return c.counters }

// Deploy runs stmts as packet (module, version) unless it is already
// registered. It reports whether the packet was deployed.
func (c *Client) Deploy(ctx context.Context, module string, version int, stmts ...string) (bool, error) {
	if err := outsideTx(ctx); err != nil {
		return false, err
	}
	return c.packaging.Deploy(ctx, module, version, stmts...)
}

// DeployScript is like Deploy for a script of several statements.
func (c *Client) DeployScript(ctx context.Context, module string, version int, script string) (bool, error) {
	if err := outsideTx(ctx); err != nil {
		return false, err
	}
	return c.packaging.DeployScript(ctx, module, version, script)
}

// DeployDir deploys the packets of a directory of "<version>_<module>.sql"
// files and returns the number of packets deployed.
func (c *Client) DeployDir(ctx context.Context, dir migrate.Dir) (int, error) {
	if err := outsideTx(ctx); err != nil {
		return 0, err
	}
	return c.packaging.DeployDir(ctx, dir)
}

// Registered reports whether packet (module, version) is registered.
func (c *Client) Registered(ctx context.Context, module string, version int) (bool, error) {
	if err := outsideTx(ctx); err != nil {
		return false, err
	}
	return c.packaging.Registered(ctx, module, version)
}

// Packets returns the registered packets.
func (c *Client) Packets(ctx context.Context) ([]*schema.Packet, error) {
	if err := outsideTx(ctx); err != nil {
		return nil, err
	}
	return c.packaging.Packets(ctx)
}

// Tx begins a unit of work. It fails with ErrTxStarted when ctx already
// carries one, see NewTxContext.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	if err := outsideTx(ctx); err != nil {
		return nil, err
	}
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("dbmeta: starting a transaction: %w", err)
	}
	return &Tx{Tx: tx, client: c}, nil
}

// Run executes fn in a unit of work. The work is committed when fn
// returns nil and rolled back when it returns an error or panics, which
// also reverts every id allocated inside it.
//
// The context passed to fn carries the transaction. Client methods called
// with it fail with ErrTxStarted instead of waiting for a connection held
// by the unit of work; fn must do its work through tx.
//
//	err := client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
//		id, err := tx.GenID(ctx)
//		if err != nil {
//			return err
//		}
//		_, err = tx.Execute(ctx, "INSERT INTO app_Tag (id) VALUES (?)", id)
//		return err
//	})
func (c *Client) Run(ctx context.Context, fn func(context.Context, *Tx) error) error {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(NewTxContext(ctx, tx), tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, &RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbmeta: committing transaction: %w", err)
	}
	return nil
}

// outsideTx fails when ctx carries a unit of work.
func outsideTx(ctx context.Context) error {
	if TxFromContext(ctx) != nil {
		return ErrTxStarted
	}
	return nil
}

// Close closes the database.
func (c *Client) Close() error {
	if c.counters != nil {
		c.logger.Debug("client closed", "stats", c.counters.String())
	}
	return c.driver.Close()
}
