package sqlmap

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/despencer/dbmeta/dialect/sql"
)

// Transform is a pair of conversions between the in-memory value of a field
// and its storage representation.
type Transform[V any] struct {
	// Write converts the value before it is stored.
	Write func(V) (any, error)
	// Read converts a raw column value after it is loaded.
	Read func(any) (V, error)
}

// UUID stores a uuid.UUID in its canonical text form. NULL reads as uuid.Nil.
func UUID() Transform[uuid.UUID] {
	return Transform[uuid.UUID]{
		Write: func(u uuid.UUID) (any, error) { return u.String(), nil },
		Read: func(v any) (uuid.UUID, error) {
			s, err := sql.AsString(v)
			if err != nil || s == "" {
				return uuid.Nil, err
			}
			return uuid.Parse(s)
		},
	}
}

// Msgpack stores any value as a MessagePack encoded blob. NULL reads as the
// zero value.
func Msgpack[V any]() Transform[V] {
	return Transform[V]{
		Write: func(v V) (any, error) { return msgpack.Marshal(v) },
		Read: func(raw any) (V, error) {
			var v V
			var b []byte
			switch raw := raw.(type) {
			case nil:
				return v, nil
			case []byte:
				b = raw
			case string:
				b = []byte(raw)
			default:
				return v, fmt.Errorf("sqlmap: cannot decode %T as msgpack", raw)
			}
			err := msgpack.Unmarshal(b, &v)
			return v, err
		},
	}
}

// UnixTime stores a time.Time as integer seconds since the epoch, the
// format of the packet registry. The zero time is stored as NULL.
func UnixTime() Transform[time.Time] {
	return Transform[time.Time]{
		Write: func(t time.Time) (any, error) {
			if t.IsZero() {
				return nil, nil
			}
			return t.Unix(), nil
		},
		Read: func(v any) (time.Time, error) {
			if v == nil {
				return time.Time{}, nil
			}
			n, err := sql.AsInt64(v)
			if err != nil {
				return time.Time{}, err
			}
			return time.Unix(n, 0).UTC(), nil
		},
	}
}
