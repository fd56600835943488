package dbmeta

import (
	"context"
	"fmt"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

// Tx is a unit of work. It implements dialect.ExecQuerier, so generated
// row mappers and sqlmap operations run inside it.
type Tx struct {
	dialect.Tx
	client *Client
}

// Dialect returns the dialect of the database.
func (tx *Tx) Dialect() string { return tx.client.Dialect() }

// Client returns the client that started the transaction.
func (tx *Tx) Client() *Client { return tx.client }

// GenID returns the next value of the database-wide id sequence and
// advances it. The increment belongs to the transaction: rolling back
// makes the same id available again.
func (tx *Tx) GenID(ctx context.Context) (int64, error) {
	d := tx.Dialect()
	query, args := sql.Select("id").Dialect(d).From(schema.SequenceTable).Query()
	rows, err := sql.QueryValues(ctx, tx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("dbmeta: read id sequence: %w", err)
	}
	switch len(rows) {
	case 0:
		return 0, NewNotFoundError(schema.SequenceTable)
	case 1:
	default:
		return 0, NewNotSingularError(schema.SequenceTable, len(rows))
	}
	id, err := sql.AsInt64(rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("dbmeta: read id sequence: %w", err)
	}
	query, args = sql.Update(schema.SequenceTable).Dialect(d).Set("id", id+1).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("dbmeta: advance id sequence: %w", err)
	}
	return id, nil
}

// Execute runs a raw statement and returns the number of affected rows.
// Constraint violations are reported as *ConstraintError.
func (tx *Tx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	if args == nil {
		args = []any{}
	}
	var res sql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		if sql.IsConstraintError(err) {
			return 0, NewConstraintError(err.Error(), err)
		}
		return 0, &QueryError{Query: query, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}
	return n, nil
}

// QueryValues runs a raw query and returns every row as raw values.
func (tx *Tx) QueryValues(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := sql.QueryValues(ctx, tx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return rows, nil
}

type txKey struct{}

// NewTxContext returns a new context with the given Tx attached.
func NewTxContext(parent context.Context, tx *Tx) context.Context {
	return context.WithValue(parent, txKey{}, tx)
}

// TxFromContext returns the Tx stored in a context, or nil if there isn't one.
func TxFromContext(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txKey{}).(*Tx)
	return tx
}
