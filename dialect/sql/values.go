package sql

import (
	"fmt"
	"strconv"
)

// AsInt64 converts a raw column value returned by QueryValues to int64.
// Drivers differ in the Go types they return for integer columns; MySQL
// text results arrive as []byte.
func AsInt64(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("dialect/sql: cannot convert %T to int64", v)
	}
}

// AsString converts a raw column value returned by QueryValues to string.
func AsString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("dialect/sql: cannot convert %T to string", v)
	}
}
