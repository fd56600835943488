package sql

import (
	"strconv"
	"strings"

	"github.com/despencer/dbmeta/dialect"
)

// Querier wraps the basic Query method implemented by the statement builders.
type Querier interface {
	// Query returns the statement text and its bound arguments.
	Query() (string, []any)
}

// Builder is the base statement builder. It writes identifiers and
// parameter placeholders in the syntax of its dialect.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
}

// Dialect sets the dialect of the builder.
func (b *Builder) Dialect(name string) { b.dialect = name }

// postgres reports whether placeholders are numbered.
func (b *Builder) postgres() bool { return b.dialect == dialect.Postgres }

// WriteString appends s to the statement text.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(Quote(b.dialect, name))
	return b
}

// IdentComma appends the quoted identifiers separated by commas.
func (b *Builder) IdentComma(names ...string) *Builder {
	for i, n := range names {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(n)
	}
	return b
}

// Arg appends a placeholder and records its argument.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.postgres() {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Pred appends a raw predicate whose parameters are written as '?'.
// For dialects with numbered placeholders the markers are renumbered
// relative to the arguments already recorded. Markers inside single quoted
// literals are left untouched.
func (b *Builder) Pred(pred string, args ...any) *Builder {
	if !b.postgres() {
		b.sb.WriteString(pred)
		b.args = append(b.args, args...)
		return b
	}
	n, quoted := len(b.args), false
	for _, r := range pred {
		switch {
		case r == '\'':
			quoted = !quoted
			b.sb.WriteRune(r)
		case r == '?' && !quoted:
			n++
			b.sb.WriteString("$" + strconv.Itoa(n))
		default:
			b.sb.WriteRune(r)
		}
	}
	b.args = append(b.args, args...)
	return b
}

// String returns the statement text.
func (b *Builder) String() string { return b.sb.String() }

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) { return b.sb.String(), b.args }

// Quote quotes an identifier for the given dialect.
func Quote(dialectName, ident string) string {
	switch dialectName {
	case dialect.Postgres:
		return strconv.Quote(ident)
	default:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
}

// InsertBuilder is a builder for `INSERT INTO` statements.
type InsertBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
}

// Insert creates a builder for the `INSERT INTO` statement.
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

// Dialect sets the dialect of the statement.
func (i *InsertBuilder) Dialect(name string) *InsertBuilder {
	i.dialect = name
	return i
}

// Columns sets the columns of the insert statement.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values sets the values of the insert statement, in column order.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values...)
	return i
}

// Query returns query representation of an `INSERT INTO` statement.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ").Ident(i.table).WriteString(" (").IdentComma(i.columns...).WriteString(") VALUES (")
	for j, v := range i.values {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Arg(v)
	}
	b.WriteString(")")
	return b.Query()
}

// UpdateBuilder is a builder for `UPDATE` statements.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	where   string
	args    []any
}

// Update creates a builder for the `UPDATE` statement.
func Update(table string) *UpdateBuilder { return &UpdateBuilder{table: table} }

// Dialect sets the dialect of the statement.
func (u *UpdateBuilder) Dialect(name string) *UpdateBuilder {
	u.dialect = name
	return u
}

// Set sets a column to a given value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where sets a raw predicate using '?' markers for args.
func (u *UpdateBuilder) Where(pred string, args ...any) *UpdateBuilder {
	u.where, u.args = pred, args
	return u
}

// Query returns query representation of an `UPDATE` statement.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for j, c := range u.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[j])
	}
	if u.where != "" {
		b.WriteString(" WHERE ").Pred(u.where, u.args...)
	}
	return b.Query()
}

// Selector is a builder for `SELECT` statements.
type Selector struct {
	dialect string
	table   string
	columns []string
	where   string
	args    []any
	order   []string
}

// Select creates a builder for the `SELECT` statement over the given columns.
func Select(columns ...string) *Selector { return &Selector{columns: columns} }

// Dialect sets the dialect of the statement.
func (s *Selector) Dialect(name string) *Selector {
	s.dialect = name
	return s
}

// From sets the source table.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Where sets a raw predicate using '?' markers for args.
func (s *Selector) Where(pred string, args ...any) *Selector {
	s.where, s.args = pred, args
	return s
}

// OrderBy appends ascending order columns.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ").IdentComma(s.columns...).WriteString(" FROM ").Ident(s.table)
	if s.where != "" {
		b.WriteString(" WHERE ").Pred(s.where, s.args...)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ").IdentComma(s.order...)
	}
	return b.Query()
}

// DeleteBuilder is a builder for `DELETE` statements.
type DeleteBuilder struct {
	dialect string
	table   string
	where   string
	args    []any
}

// Delete creates a builder for the `DELETE` statement.
func Delete(table string) *DeleteBuilder { return &DeleteBuilder{table: table} }

// Dialect sets the dialect of the statement.
func (d *DeleteBuilder) Dialect(name string) *DeleteBuilder {
	d.dialect = name
	return d
}

// Where sets a raw predicate using '?' markers for args.
func (d *DeleteBuilder) Where(pred string, args ...any) *DeleteBuilder {
	d.where, d.args = pred, args
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ").Ident(d.table)
	if d.where != "" {
		b.WriteString(" WHERE ").Pred(d.where, d.args...)
	}
	return b.Query()
}

var (
	_ Querier = (*Builder)(nil)
	_ Querier = (*InsertBuilder)(nil)
	_ Querier = (*UpdateBuilder)(nil)
	_ Querier = (*Selector)(nil)
	_ Querier = (*DeleteBuilder)(nil)
)
