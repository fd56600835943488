package schema

// Table is the physical table compiled from an entity. The primary column
// is kept apart from the ordered data columns.
type Table struct {
	Name    string
	Primary *Column
	Columns []*Column
}

// Column is a physical column. Reference names the table a foreign key
// column points to and is empty for plain columns.
type Column struct {
	Name      string
	Type      string
	Reference string
}

// NewTable returns a table with the given name and primary column.
func NewTable(name string, primary *Column) *Table {
	return &Table{Name: name, Primary: primary}
}

// AddColumns appends columns to the table.
func (t *Table) AddColumns(columns ...*Column) *Table {
	t.Columns = append(t.Columns, columns...)
	return t
}

// Column returns the column with the given name, including the primary
// column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.All() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns the primary column followed by the data columns. This is the
// physical column order of the table.
func (t *Table) All() []*Column {
	all := make([]*Column, 0, len(t.Columns)+1)
	if t.Primary != nil {
		all = append(all, t.Primary)
	}
	return append(all, t.Columns...)
}

// ColumnNames returns the names of All.
func (t *Table) ColumnNames() []string {
	all := t.All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

// References returns the foreign key columns in order.
func (t *Table) References() []*Column {
	var refs []*Column
	for _, c := range t.Columns {
		if c.IsReference() {
			refs = append(refs, c)
		}
	}
	return refs
}

// IsReference reports whether the column is a foreign key.
func (c *Column) IsReference() bool { return c.Reference != "" }
