package sqlmap

import (
	"fmt"
	"math"

	"github.com/despencer/dbmeta/dialect/sql"
)

// Field binds one column to an accessor pair of the record type T.
// Fields are built with the typed constructors of this package; the order
// of the fields of a Mapping is the column order of its table.
type Field[T any] struct {
	Column string
	get    func(*T) (any, error)
	set    func(*T, any) error
}

// Func returns a field with custom accessors. get returns the value to
// store and set assigns a raw column value as returned by the driver.
func Func[T any](column string, get func(*T) (any, error), set func(*T, any) error) Field[T] {
	return Field[T]{Column: column, get: get, set: set}
}

// ID returns the key field. It is stored in the id column.
func ID[T any](ptr func(*T) *int64) Field[T] {
	return Int64("id", ptr)
}

// Int64 returns an integer field. NULL reads as zero.
func Int64[T any](column string, ptr func(*T) *int64) Field[T] {
	return Field[T]{
		Column: column,
		get:    func(r *T) (any, error) { return *ptr(r), nil },
		set: func(r *T, v any) error {
			n, err := readInt(v)
			*ptr(r) = n
			return err
		},
	}
}

// Int32 returns a 32-bit integer field. NULL reads as zero.
func Int32[T any](column string, ptr func(*T) *int32) Field[T] {
	return Field[T]{
		Column: column,
		get:    func(r *T) (any, error) { return int64(*ptr(r)), nil },
		set: func(r *T, v any) error {
			n, err := readInt(v)
			if err != nil {
				return err
			}
			if n < math.MinInt32 || n > math.MaxInt32 {
				return fmt.Errorf("sqlmap: value %d overflows int32", n)
			}
			*ptr(r) = int32(n)
			return nil
		},
	}
}

// Uint32 returns an unsigned 32-bit integer field. NULL reads as zero.
func Uint32[T any](column string, ptr func(*T) *uint32) Field[T] {
	return Field[T]{
		Column: column,
		get:    func(r *T) (any, error) { return int64(*ptr(r)), nil },
		set: func(r *T, v any) error {
			n, err := readInt(v)
			if err != nil {
				return err
			}
			if n < 0 || n > math.MaxUint32 {
				return fmt.Errorf("sqlmap: value %d overflows uint32", n)
			}
			*ptr(r) = uint32(n)
			return nil
		},
	}
}

// String returns a text field. NULL reads as the empty string.
func String[T any](column string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Column: column,
		get:    func(r *T) (any, error) { return *ptr(r), nil },
		set: func(r *T, v any) error {
			s, err := sql.AsString(v)
			*ptr(r) = s
			return err
		},
	}
}

// Ref returns a foreign key field holding the id of the referenced row.
// Zero means no row and is stored as NULL, so foreign key enforcement
// accepts records without a reference.
func Ref[T any](column string, ptr func(*T) *int64) Field[T] {
	return Field[T]{
		Column: column,
		get: func(r *T) (any, error) {
			if id := *ptr(r); id != 0 {
				return id, nil
			}
			return nil, nil
		},
		set: func(r *T, v any) error {
			n, err := readInt(v)
			*ptr(r) = n
			return err
		},
	}
}

// Value returns a field whose in-memory value is converted by tr when it is
// written to and read from the column.
func Value[T, V any](column string, ptr func(*T) *V, tr Transform[V]) Field[T] {
	return Field[T]{
		Column: column,
		get:    func(r *T) (any, error) { return tr.Write(*ptr(r)) },
		set: func(r *T, v any) error {
			val, err := tr.Read(v)
			if err != nil {
				return err
			}
			*ptr(r) = val
			return nil
		},
	}
}

func readInt(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	return sql.AsInt64(v)
}
