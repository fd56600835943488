package gen

import (
	"fmt"
	"maps"
	"slices"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/schema"
)

// Storage is a backend descriptor: the dialect it renders for and the
// column type of every primitive it can store. A descriptor is read-only
// once built.
type Storage struct {
	Name    string            // storage name.
	Dialect string            // dialect of the rendered DDL.
	Types   map[string]string // primitive name to column type.
}

// ColumnType returns the column type of the given primitive.
func (s *Storage) ColumnType(name string) (string, error) {
	if t, ok := s.Types[name]; ok {
		return t, nil
	}
	return "", &UnmappedTypeError{Storage: s.Name, Type: name}
}

// With returns a copy of s with extra primitive mappings. Existing entries
// are overridden.
func (s *Storage) With(types map[string]string) *Storage {
	c := &Storage{Name: s.Name, Dialect: s.Dialect, Types: maps.Clone(s.Types)}
	maps.Copy(c.Types, types)
	return c
}

// String implements the fmt.Stringer interface.
func (s *Storage) String() string { return s.Name }

// drivers holds the built-in descriptors.
var drivers = []*Storage{
	{
		Name:    "sqlite",
		Dialect: dialect.SQLite,
		Types: map[string]string{
			schema.TypeID:     "INTEGER",
			schema.TypeInt32:  "INTEGER",
			schema.TypeUint32: "INTEGER",
			schema.TypeString: "TEXT",
		},
	},
	{
		Name:    "postgres",
		Dialect: dialect.Postgres,
		Types: map[string]string{
			schema.TypeID:     "BIGINT",
			schema.TypeInt32:  "INTEGER",
			schema.TypeUint32: "BIGINT",
			schema.TypeString: "TEXT",
		},
	},
	{
		Name:    "mysql",
		Dialect: dialect.MySQL,
		Types: map[string]string{
			schema.TypeID:     "BIGINT",
			schema.TypeInt32:  "INT",
			schema.TypeUint32: "INT UNSIGNED",
			schema.TypeString: "TEXT",
		},
	},
}

// NewStorage returns the built-in descriptor with the given name.
func NewStorage(name string) (*Storage, error) {
	for _, d := range drivers {
		if name == d.Name {
			return d.With(nil), nil
		}
	}
	return nil, fmt.Errorf("dbmeta/gen: invalid storage driver %q", name)
}

// StorageNames returns the names of the built-in descriptors.
func StorageNames() []string {
	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = d.Name
	}
	return slices.Sorted(slices.Values(names))
}
