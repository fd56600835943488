package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsTableNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlite", errors.New("SQL logic error: no such table: dbm_packet (1)"), true},
		{"postgres", &pq.Error{Code: "42P01"}, true},
		{"postgres wrapped", fmt.Errorf("dialect/sql: query: %w", &pq.Error{Code: "42P01"}), true},
		{"postgres other", &pq.Error{Code: "42601"}, false},
		{"mysql", &mysql.MySQLError{Number: 1146}, true},
		{"mysql other", &mysql.MySQLError{Number: 1064}, false},
		{"other", errors.New("database is locked"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTableNotFound(tt.err))
		})
	}
}

func TestIsConstraintError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique, fk bool
	}{
		{"sqlite unique", errors.New("UNIQUE constraint failed: dbm_packet.module, dbm_packet.version"), true, false},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), false, true},
		{"postgres unique", &pq.Error{Code: "23505"}, true, false},
		{"postgres fk", fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}), false, true},
		{"mysql unique", &mysql.MySQLError{Number: 1062}, true, false},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, false, true},
		{"other", errors.New("timeout"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.fk, IsConstraintError(tt.err))
		})
	}
	assert.True(t, IsCheckConstraintError(errors.New("CHECK constraint failed: total")))
	assert.False(t, IsCheckConstraintError(nil))
}
