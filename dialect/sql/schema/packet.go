package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ariga.io/atlas/sql/migrate"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
)

// Names of the system tables and bootstrap packets.
const (
	RegistryTable  = "dbm_packet"
	RegistryModule = "dbm"
	SequenceTable  = "seqid_seq"
	SequenceModule = "seqid"
)

// Packet is a registry row: a (module, version) pair deployed at a point in time.
type Packet struct {
	Module   string
	Version  int
	Deployed time.Time
}

// String returns the packet key.
func (p *Packet) String() string { return p.Module + "-" + strconv.Itoa(p.Version) }

// Packaging applies versioned packets exactly once. The registry row of a
// packet is written in the same transaction as its statements.
type Packaging struct {
	drv    dialect.Driver
	logger *slog.Logger
	now    func() time.Time
}

// PackagingOption configures the Packaging engine.
type PackagingOption func(*Packaging)

// WithLogger sets the logger used for registry events.
func WithLogger(l *slog.Logger) PackagingOption {
	return func(p *Packaging) {
		p.logger = l
	}
}

// WithClock sets the clock used for deploy timestamps.
func WithClock(now func() time.Time) PackagingOption {
	return func(p *Packaging) {
		p.now = now
	}
}

// NewPackaging returns the packet engine for the given driver.
func NewPackaging(drv dialect.Driver, opts ...PackagingOption) *Packaging {
	p := &Packaging{
		drv:    drv,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check makes sure the registry exists and the bootstrap packets are
// deployed. A missing registry table is created first. The bootstrap
// packets go through Deploy like any other packet and are skipped once
// registered.
func (p *Packaging) Check(ctx context.Context) error {
	query, args := sql.Select("module").
		Dialect(p.drv.Dialect()).
		From(RegistryTable).
		Where("module = ?", RegistryModule).
		Query()
	if _, err := sql.QueryValues(ctx, p.drv, query, args...); err != nil {
		if !sql.IsTableNotFound(err) {
			return fmt.Errorf("schema: check packet registry: %w", err)
		}
		if err := p.createRegistry(ctx); err != nil {
			return err
		}
	}
	if _, err := p.Deploy(ctx, RegistryModule, 1); err != nil {
		return err
	}
	_, err := p.Deploy(ctx, SequenceModule, 1,
		"CREATE TABLE "+SequenceTable+" (id INTEGER NOT NULL)",
		"INSERT INTO "+SequenceTable+" (id) VALUES (1)",
	)
	return err
}

func (p *Packaging) createRegistry(ctx context.Context) error {
	tx, err := p.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := tx.Exec(ctx, registryTable(p.drv.Dialect()), []any{}, nil); err != nil {
		return rollback(tx, fmt.Errorf("schema: create packet registry: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("schema: create packet registry: %w", err)
	}
	p.logger.Info("packet registry created", "table", RegistryTable)
	return nil
}

// Registered reports whether the (module, version) packet is in the registry.
func (p *Packaging) Registered(ctx context.Context, module string, version int) (bool, error) {
	return p.registered(ctx, p.drv, module, version)
}

func (p *Packaging) registered(ctx context.Context, ex dialect.ExecQuerier, module string, version int) (bool, error) {
	query, args := sql.Select("deploy").
		Dialect(p.drv.Dialect()).
		From(RegistryTable).
		Where("module = ? AND version = ?", module, version).
		Query()
	rows, err := sql.QueryValues(ctx, ex, query, args...)
	if err != nil {
		return false, fmt.Errorf("schema: query packet %s-%d: %w", module, version, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	p.logger.Debug("packet found in registry", "module", module, "version", version)
	return true, nil
}

// Deploy applies the statements of the (module, version) packet and
// registers it, all in one transaction. It returns false without executing
// anything if the packet is already registered. If a statement fails, the
// transaction is rolled back and a *MigrationError is returned.
func (p *Packaging) Deploy(ctx context.Context, module string, version int, stmts ...string) (bool, error) {
	tx, err := p.drv.Tx(ctx)
	if err != nil {
		return false, err
	}
	deployed, err := p.deploy(ctx, tx, module, version, stmts)
	if err != nil {
		return false, rollback(tx, err)
	}
	if !deployed {
		return false, tx.Rollback()
	}
	if err := tx.Commit(); err != nil {
		return false, &MigrationError{Module: module, Version: version, Index: -1, Err: err}
	}
	p.logger.Info("packet deployed", "module", module, "version", version, "statements", len(stmts))
	return true, nil
}

func (p *Packaging) deploy(ctx context.Context, tx dialect.Tx, module string, version int, stmts []string) (bool, error) {
	ok, err := p.registered(ctx, tx, module, version)
	if err != nil || ok {
		return false, err
	}
	if err := p.checkOrder(ctx, tx, module, version); err != nil {
		return false, err
	}
	for i, stmt := range stmts {
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			return false, &MigrationError{Module: module, Version: version, Stmt: stmt, Index: i, Err: err}
		}
	}
	query, args := sql.Insert(RegistryTable).
		Dialect(p.drv.Dialect()).
		Columns("module", "version", "deploy").
		Values(module, version, p.now().UTC().Unix()).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return false, &MigrationError{Module: module, Version: version, Stmt: query, Index: -1, Err: err}
	}
	p.logger.Info("packet registered", "module", module, "version", version)
	return true, nil
}

// checkOrder warns when a packet is older than the newest registered packet
// of its module. Sequencing is left to the packet authors.
func (p *Packaging) checkOrder(ctx context.Context, ex dialect.ExecQuerier, module string, version int) error {
	query, args := sql.Select("version").
		Dialect(p.drv.Dialect()).
		From(RegistryTable).
		Where("module = ?", module).
		Query()
	rows, err := sql.QueryValues(ctx, ex, query, args...)
	if err != nil {
		return fmt.Errorf("schema: query packets of %s: %w", module, err)
	}
	for _, row := range rows {
		v, err := sql.AsInt64(row[0])
		if err != nil {
			return err
		}
		if int(v) > version {
			p.logger.Warn("packet deployed out of order", "module", module, "version", version, "newest", v)
			return nil
		}
	}
	return nil
}

// DeployScript splits script into statements and deploys them as one packet.
func (p *Packaging) DeployScript(ctx context.Context, module string, version int, script string) (bool, error) {
	parsed, err := migrate.Stmts(script)
	if err != nil {
		return false, fmt.Errorf("schema: parse packet %s-%d: %w", module, version, err)
	}
	stmts := make([]string, len(parsed))
	for i, s := range parsed {
		stmts[i] = s.Text
	}
	return p.Deploy(ctx, module, version, stmts...)
}

// DeployDir deploys every file of dir as a packet, in file name order.
// Files are named <version>_<module>.sql. It returns the number of packets
// that were deployed by this call.
func (p *Packaging) DeployDir(ctx context.Context, dir migrate.Dir) (int, error) {
	files, err := dir.Files()
	if err != nil {
		return 0, fmt.Errorf("schema: read packet directory: %w", err)
	}
	var n int
	for _, f := range files {
		version, err := strconv.Atoi(f.Version())
		if err != nil || f.Desc() == "" {
			return n, fmt.Errorf("schema: packet file %q is not named <version>_<module>.sql", f.Name())
		}
		stmts, err := f.Stmts()
		if err != nil {
			return n, fmt.Errorf("schema: parse packet file %q: %w", f.Name(), err)
		}
		ok, err := p.Deploy(ctx, f.Desc(), version, stmts...)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Packets returns the registry rows ordered by module and version.
func (p *Packaging) Packets(ctx context.Context) ([]*Packet, error) {
	query, args := sql.Select("module", "version", "deploy").
		Dialect(p.drv.Dialect()).
		From(RegistryTable).
		OrderBy("module", "version").
		Query()
	rows, err := sql.QueryValues(ctx, p.drv, query, args...)
	if err != nil {
		return nil, fmt.Errorf("schema: list packets: %w", err)
	}
	packets := make([]*Packet, 0, len(rows))
	for _, row := range rows {
		module, err := sql.AsString(row[0])
		if err != nil {
			return nil, err
		}
		version, err := sql.AsInt64(row[1])
		if err != nil {
			return nil, err
		}
		pk := &Packet{Module: module, Version: int(version)}
		if row[2] != nil {
			ts, err := sql.AsInt64(row[2])
			if err != nil {
				return nil, err
			}
			pk.Deployed = time.Unix(ts, 0).UTC()
		}
		packets = append(packets, pk)
	}
	return packets, nil
}

// rollback rolls back tx and joins a rollback failure to err.
func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return errors.Join(err, fmt.Errorf("schema: rollback: %w", rerr))
	}
	return err
}
