package sql

import (
	"testing"

	"github.com/despencer/dbmeta/dialect"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	tests := []struct {
		name  string
		input Querier
		query string
		args  []any
	}{
		{
			name:  "insert",
			input: Insert("app_Invoice").Columns("id", "total").Values(1, 20),
			query: "INSERT INTO `app_Invoice` (`id`, `total`) VALUES (?, ?)",
			args:  []any{1, 20},
		},
		{
			name:  "insert postgres",
			input: Insert("app_Invoice").Dialect(dialect.Postgres).Columns("id", "total").Values(1, 20),
			query: `INSERT INTO "app_Invoice" ("id", "total") VALUES ($1, $2)`,
			args:  []any{1, 20},
		},
		{
			name:  "update",
			input: Update("app_Invoice").Set("total", 30).Set("address_city", "Oslo").Where("id = ?", 1),
			query: "UPDATE `app_Invoice` SET `total` = ?, `address_city` = ? WHERE id = ?",
			args:  []any{30, "Oslo", 1},
		},
		{
			name:  "update postgres",
			input: Update("app_Invoice").Dialect(dialect.Postgres).Set("total", 30).Where("id = ?", 1),
			query: `UPDATE "app_Invoice" SET "total" = $1 WHERE id = $2`,
			args:  []any{30, 1},
		},
		{
			name:  "select",
			input: Select("id", "total").From("app_Invoice").Where("total > ? AND total < ?", 1, 9).OrderBy("id"),
			query: "SELECT `id`, `total` FROM `app_Invoice` WHERE total > ? AND total < ? ORDER BY `id`",
			args:  []any{1, 9},
		},
		{
			name:  "select postgres literal",
			input: Select("id").Dialect(dialect.Postgres).From("t").Where("name = '?' OR id = ?", 4),
			query: `SELECT "id" FROM "t" WHERE name = '?' OR id = $1`,
			args:  []any{4},
		},
		{
			name:  "delete",
			input: Delete("app_Invoice").Where("id = ?", 5),
			query: "DELETE FROM `app_Invoice` WHERE id = ?",
			args:  []any{5},
		},
		{
			name:  "delete all",
			input: Delete("app_Invoice"),
			query: "DELETE FROM `app_Invoice`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := tt.input.Query()
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`a``b`", Quote(dialect.SQLite, "a`b"))
	assert.Equal(t, "`users`", Quote(dialect.MySQL, "users"))
	assert.Equal(t, `"a\"b"`, Quote(dialect.Postgres, `a"b`))
}
