package sqlmap

import (
	"context"
	"fmt"
	"slices"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

// Mapping binds the record type T to a table. The ordered field list drives
// every statement the mapping builds and must match the column order of the
// compiled table.
type Mapping[T any] struct {
	Table  string
	Fields []Field[T]
}

// New returns a mapping of T to the given table.
func New[T any](table string, fields ...Field[T]) *Mapping[T] {
	return &Mapping[T]{Table: table, Fields: fields}
}

// Columns returns the column names in field order.
func (m *Mapping[T]) Columns() []string {
	columns := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		columns[i] = f.Column
	}
	return columns
}

// validate checks the mapping has a unique id field and unique columns.
func (m *Mapping[T]) validate() error {
	if m.Table == "" {
		return fmt.Errorf("sqlmap: mapping has no table name")
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.Column == "" || f.get == nil || f.set == nil {
			return fmt.Errorf("sqlmap: mapping %s has an incomplete field %q", m.Table, f.Column)
		}
		if seen[f.Column] {
			return fmt.Errorf("sqlmap: mapping %s declares column %q twice", m.Table, f.Column)
		}
		seen[f.Column] = true
	}
	if !seen["id"] {
		return fmt.Errorf("sqlmap: mapping %s has no id field", m.Table)
	}
	return nil
}

// Verify checks that the fields match the columns of t one to one and in
// order.
func (m *Mapping[T]) Verify(t *schema.Table) error {
	if m.Table != t.Name {
		return fmt.Errorf("sqlmap: mapping table %s does not match %s", m.Table, t.Name)
	}
	if got, want := m.Columns(), t.ColumnNames(); !slices.Equal(got, want) {
		return fmt.Errorf("sqlmap: mapping %s columns %v do not match table columns %v", m.Table, got, want)
	}
	return nil
}

// values returns the stored values of rec in field order. Fields named in
// skip are left out.
func (m *Mapping[T]) values(rec *T, skip string) ([]string, []any, error) {
	columns := make([]string, 0, len(m.Fields))
	values := make([]any, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Column == skip {
			continue
		}
		v, err := f.get(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlmap: write %s.%s: %w", m.Table, f.Column, err)
		}
		columns = append(columns, f.Column)
		values = append(values, v)
	}
	return columns, values, nil
}

func (m *Mapping[T]) id(rec *T) (any, error) {
	for _, f := range m.Fields {
		if f.Column == "id" {
			return f.get(rec)
		}
	}
	return nil, fmt.Errorf("sqlmap: mapping %s has no id field", m.Table)
}

// Insert writes rec as a new row. The id of rec must have been assigned
// before, usually from the id sequence. Insert returns rec unchanged.
func (m *Mapping[T]) Insert(ctx context.Context, ex dialect.ExecQuerier, rec *T) (*T, error) {
	columns, values, err := m.values(rec, "")
	if err != nil {
		return nil, err
	}
	query, args := sql.Insert(m.Table).Dialect(dialectOf(ex)).Columns(columns...).Values(values...).Query()
	if err := ex.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("sqlmap: insert %s: %w", m.Table, err)
	}
	return rec, nil
}

// Update writes every field of rec except id to the row with the id of rec.
// It returns the number of affected rows.
func (m *Mapping[T]) Update(ctx context.Context, ex dialect.ExecQuerier, rec *T) (int64, error) {
	columns, values, err := m.values(rec, "id")
	if err != nil {
		return 0, err
	}
	id, err := m.id(rec)
	if err != nil {
		return 0, err
	}
	u := sql.Update(m.Table).Dialect(dialectOf(ex))
	for i, c := range columns {
		u.Set(c, values[i])
	}
	query, args := u.Where("id = ?", id).Query()
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("sqlmap: update %s: %w", m.Table, err)
	}
	return res.RowsAffected()
}

// Get returns the row with the given id. A missing row is reported by the
// boolean, not as an error.
func (m *Mapping[T]) Get(ctx context.Context, ex dialect.ExecQuerier, id int64) (T, bool, error) {
	return m.GetBy(ctx, ex, "id = ?", id)
}

// GetBy returns the first row matching the predicate. Parameters are
// written as '?' in pred.
func (m *Mapping[T]) GetBy(ctx context.Context, ex dialect.ExecQuerier, pred string, args ...any) (T, bool, error) {
	var zero T
	recs, err := m.list(ctx, ex, pred, args)
	if err != nil || len(recs) == 0 {
		return zero, false, err
	}
	return recs[0], true, nil
}

// List returns the rows matching the predicate ordered by id. An empty
// predicate matches every row.
func (m *Mapping[T]) List(ctx context.Context, ex dialect.ExecQuerier, pred string, args ...any) ([]T, error) {
	return m.list(ctx, ex, pred, args)
}

func (m *Mapping[T]) list(ctx context.Context, ex dialect.ExecQuerier, pred string, args []any) ([]T, error) {
	s := sql.Select(m.Columns()...).Dialect(dialectOf(ex)).From(m.Table).OrderBy("id")
	if pred != "" {
		s.Where(pred, args...)
	}
	query, qargs := s.Query()
	rows, err := sql.QueryValues(ctx, ex, query, qargs...)
	if err != nil {
		return nil, fmt.Errorf("sqlmap: select %s: %w", m.Table, err)
	}
	recs := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		for i, f := range m.Fields {
			if err := f.set(&rec, row[i]); err != nil {
				return nil, fmt.Errorf("sqlmap: read %s.%s: %w", m.Table, f.Column, err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Delete removes the row with the given id and reports whether it existed.
func (m *Mapping[T]) Delete(ctx context.Context, ex dialect.ExecQuerier, id int64) (bool, error) {
	query, args := sql.Delete(m.Table).Dialect(dialectOf(ex)).Where("id = ?", id).Query()
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("sqlmap: delete %s: %w", m.Table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// dialectOf returns the dialect of ex when it exposes one.
func dialectOf(ex dialect.ExecQuerier) string {
	if d, ok := ex.(interface{ Dialect() string }); ok {
		return d.Dialect()
	}
	return ""
}
