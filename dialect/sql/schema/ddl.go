package schema

import (
	"fmt"
	"strings"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
)

// CreateTable returns the CREATE TABLE statement of t for the given dialect.
// Foreign keys reference the primary column of the target table, which is
// always named id.
func CreateTable(dialectName string, t *Table) string {
	b := &sql.Builder{}
	b.Dialect(dialectName)
	b.WriteString("CREATE TABLE ").Ident(t.Name).WriteString(" (")
	for i, c := range t.All() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c.Name).WriteString(" ").WriteString(c.Type)
		if c == t.Primary {
			b.WriteString(" NOT NULL PRIMARY KEY")
		}
	}
	for _, c := range t.References() {
		b.WriteString(", FOREIGN KEY (").Ident(c.Name).WriteString(") REFERENCES ").
			Ident(c.Reference).WriteString(" (").Ident("id").WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

// DropTable returns the DROP TABLE statement of t.
func DropTable(dialectName string, t *Table) string {
	b := &sql.Builder{}
	b.Dialect(dialectName)
	return b.WriteString("DROP TABLE ").Ident(t.Name).String()
}

// Script returns the CREATE TABLE statements of the tables in order.
func Script(dialectName string, tables ...*Table) []string {
	stmts := make([]string, len(tables))
	for i, t := range tables {
		stmts[i] = CreateTable(dialectName, t)
	}
	return stmts
}

// AddColumn returns the ALTER TABLE statement adding c to table. A
// reference column gets its foreign key in the same statement.
func AddColumn(dialectName, table string, c *Column) string {
	b := &sql.Builder{}
	b.Dialect(dialectName)
	b.WriteString("ALTER TABLE ").Ident(table).WriteString(" ADD COLUMN ").Ident(c.Name).WriteString(" ").WriteString(c.Type)
	if c.IsReference() {
		if dialectName == dialect.MySQL {
			b.WriteString(", ADD FOREIGN KEY (").Ident(c.Name).WriteString(")")
		}
		b.WriteString(" REFERENCES ").Ident(c.Reference).WriteString(" (").Ident("id").WriteString(")")
	}
	return b.String()
}

// DropColumn returns the ALTER TABLE statement removing the named column.
func DropColumn(dialectName, table, column string) string {
	b := &sql.Builder{}
	b.Dialect(dialectName)
	return b.WriteString("ALTER TABLE ").Ident(table).WriteString(" DROP COLUMN ").Ident(column).String()
}

// Upgrade returns the statements turning the deployed tables of a previous
// package version into the desired ones: new tables are created in desired
// order, new columns are added, and dropped columns and tables are removed
// when opts allow it. Disallowed drops and changed column types or
// references fail with an *UpgradeError.
//
//	stmts, err := schema.Upgrade(dialect.SQLite, v1, v2, schema.AllowDropColumn())
func Upgrade(dialectName string, current, desired []*Table, opts ...ValidateOption) ([]string, error) {
	result := ValidateDiff(current, desired, opts...)
	var changes []string
	for _, e := range result.Errors {
		changes = append(changes, e.Error())
	}
	byName := func(tables []*Table) map[string]*Table {
		m := make(map[string]*Table, len(tables))
		for _, t := range tables {
			m[t.Name] = t
		}
		return m
	}
	from, to := byName(current), byName(desired)
	for _, c := range current {
		d, ok := to[c.Name]
		if !ok {
			continue
		}
		for _, col := range c.All() {
			if dc := d.Column(col.Name); dc != nil && (dc.Type != col.Type || dc.Reference != col.Reference) {
				changes = append(changes, fmt.Sprintf("%s.%s: column definition changed", c.Name, col.Name))
			}
		}
	}
	if len(changes) > 0 {
		return nil, &UpgradeError{Changes: changes, Result: result}
	}
	var stmts []string
	for _, d := range desired {
		c, ok := from[d.Name]
		if !ok {
			stmts = append(stmts, CreateTable(dialectName, d))
			continue
		}
		for _, col := range d.Columns {
			if c.Column(col.Name) == nil {
				stmts = append(stmts, AddColumn(dialectName, d.Name, col))
			}
		}
		for _, col := range c.Columns {
			if d.Column(col.Name) == nil {
				stmts = append(stmts, DropColumn(dialectName, d.Name, col.Name))
			}
		}
	}
	for i := len(current) - 1; i >= 0; i-- {
		if _, ok := to[current[i].Name]; !ok {
			stmts = append(stmts, DropTable(dialectName, current[i]))
		}
	}
	return stmts, nil
}

// registryTable returns the DDL of the packet registry.
func registryTable(dialectName string) string {
	module, deploy := "TEXT", "INTEGER"
	switch dialectName {
	case dialect.MySQL:
		module, deploy = "VARCHAR(255)", "BIGINT"
	case dialect.Postgres:
		deploy = "BIGINT"
	}
	return strings.Join([]string{
		"CREATE TABLE ", RegistryTable, " (",
		"module ", module, " NOT NULL, ",
		"version INTEGER NOT NULL, ",
		"deploy ", deploy, ", ",
		"PRIMARY KEY (module, version))",
	}, "")
}
