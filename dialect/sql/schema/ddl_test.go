package schema

import (
	"context"
	"testing"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceTables() []*Table {
	invoice := NewTable("app_Invoice", &Column{Name: "id", Type: "INTEGER"}).AddColumns(
		&Column{Name: "total", Type: "INTEGER"},
		&Column{Name: "address_city", Type: "TEXT"},
	)
	item := NewTable("app_LineItem", &Column{Name: "id", Type: "INTEGER"}).AddColumns(
		&Column{Name: "invoice", Type: "INTEGER", Reference: "app_Invoice"},
	)
	return []*Table{invoice, item}
}

func TestTable(t *testing.T) {
	tables := invoiceTables()
	assert.Equal(t, []string{"id", "total", "address_city"}, tables[0].ColumnNames())
	assert.Same(t, tables[0].Primary, tables[0].Column("id"))
	assert.Nil(t, tables[0].Column("missing"))
	assert.Empty(t, tables[0].References())
	require.Len(t, tables[1].References(), 1)
	assert.Equal(t, "invoice", tables[1].References()[0].Name)
}

func TestCreateTable(t *testing.T) {
	tables := invoiceTables()
	assert.Equal(t,
		"CREATE TABLE `app_Invoice` (`id` INTEGER NOT NULL PRIMARY KEY, `total` INTEGER, `address_city` TEXT)",
		CreateTable(dialect.SQLite, tables[0]))
	assert.Equal(t,
		"CREATE TABLE `app_LineItem` (`id` INTEGER NOT NULL PRIMARY KEY, `invoice` INTEGER, FOREIGN KEY (`invoice`) REFERENCES `app_Invoice` (`id`))",
		CreateTable(dialect.MySQL, tables[1]))
	assert.Equal(t,
		`CREATE TABLE "app_LineItem" ("id" INTEGER NOT NULL PRIMARY KEY, "invoice" INTEGER, FOREIGN KEY ("invoice") REFERENCES "app_Invoice" ("id"))`,
		CreateTable(dialect.Postgres, tables[1]))
	assert.Equal(t, "DROP TABLE `app_Invoice`", DropTable(dialect.SQLite, tables[0]))
	assert.Len(t, Script(dialect.SQLite, tables...), 2)
}

func TestCreateTable_SQLite(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	p := NewPackaging(drv)
	require.NoError(t, p.Check(ctx))

	ok, err := p.Deploy(ctx, "billing", 1, Script(dialect.SQLite, invoiceTables()...)...)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tableExists(t, drv, "app_Invoice"))
	assert.True(t, tableExists(t, drv, "app_LineItem"))
}

func TestRegistryTable(t *testing.T) {
	assert.Equal(t,
		"CREATE TABLE dbm_packet (module TEXT NOT NULL, version INTEGER NOT NULL, deploy INTEGER, PRIMARY KEY (module, version))",
		registryTable(dialect.SQLite))
	assert.Contains(t, registryTable(dialect.MySQL), "module VARCHAR(255) NOT NULL")
	assert.Contains(t, registryTable(dialect.Postgres), "deploy BIGINT")
}

func upgradedTables() []*Table {
	tables := invoiceTables()
	tables[0].AddColumns(&Column{Name: "note", Type: "TEXT"})
	payment := NewTable("app_Payment", &Column{Name: "id", Type: "INTEGER"}).AddColumns(
		&Column{Name: "amount", Type: "INTEGER"},
	)
	tables[1].AddColumns(&Column{Name: "payment", Type: "INTEGER", Reference: "app_Payment"})
	return []*Table{tables[0], payment, tables[1]}
}

func TestAddColumn(t *testing.T) {
	ref := &Column{Name: "invoice", Type: "BIGINT", Reference: "app_Invoice"}
	assert.Equal(t,
		"ALTER TABLE `app_Invoice` ADD COLUMN `note` TEXT",
		AddColumn(dialect.SQLite, "app_Invoice", &Column{Name: "note", Type: "TEXT"}))
	assert.Equal(t,
		`ALTER TABLE "app_LineItem" ADD COLUMN "invoice" BIGINT REFERENCES "app_Invoice" ("id")`,
		AddColumn(dialect.Postgres, "app_LineItem", ref))
	assert.Equal(t,
		"ALTER TABLE `app_LineItem` ADD COLUMN `invoice` BIGINT, ADD FOREIGN KEY (`invoice`) REFERENCES `app_Invoice` (`id`)",
		AddColumn(dialect.MySQL, "app_LineItem", ref))
	assert.Equal(t, `ALTER TABLE "app_Invoice" DROP COLUMN "note"`, DropColumn(dialect.Postgres, "app_Invoice", "note"))
}

func TestUpgrade(t *testing.T) {
	stmts, err := Upgrade(dialect.SQLite, invoiceTables(), upgradedTables())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE `app_Invoice` ADD COLUMN `note` TEXT",
		"CREATE TABLE `app_Payment` (`id` INTEGER NOT NULL PRIMARY KEY, `amount` INTEGER)",
		"ALTER TABLE `app_LineItem` ADD COLUMN `payment` INTEGER REFERENCES `app_Payment` (`id`)",
	}, stmts)

	stmts, err = Upgrade(dialect.SQLite, invoiceTables(), invoiceTables())
	require.NoError(t, err)
	assert.Empty(t, stmts)

	t.Run("drop", func(t *testing.T) {
		v2 := invoiceTables()[:1]
		v2[0].Columns = v2[0].Columns[:1]
		_, err := Upgrade(dialect.SQLite, invoiceTables(), v2)
		require.ErrorIs(t, err, ErrBreakingChange)
		var uerr *UpgradeError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, []string{
			"app_Invoice.address_city: column will be dropped",
			"app_LineItem: table will be dropped",
		}, uerr.Changes)
		assert.True(t, uerr.Result.HasBreakingChanges())

		_, err = Upgrade(dialect.SQLite, invoiceTables(), v2, AllowDropColumn())
		require.ErrorIs(t, err, ErrBreakingChange)
		assert.NotContains(t, err.Error(), "address_city")

		stmts, err := Upgrade(dialect.SQLite, invoiceTables(), v2, AllowDropColumn(), AllowDropTable())
		require.NoError(t, err)
		assert.Equal(t, []string{
			"ALTER TABLE `app_Invoice` DROP COLUMN `address_city`",
			"DROP TABLE `app_LineItem`",
		}, stmts)
	})

	t.Run("changed", func(t *testing.T) {
		v2 := invoiceTables()
		v2[0].Column("total").Type = "TEXT"
		v2[1].Column("invoice").Reference = "app_Other"
		_, err := Upgrade(dialect.SQLite, invoiceTables(), v2, AllowDropColumn(), AllowDropTable())
		require.ErrorIs(t, err, ErrBreakingChange)
		assert.EqualError(t, err, "schema: cannot upgrade: app_Invoice.total: column definition changed; app_LineItem.invoice: column definition changed")
	})
}

func TestUpgrade_SQLite(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	p := NewPackaging(drv)
	require.NoError(t, p.Check(ctx))

	_, err := p.Deploy(ctx, "billing", 1, Script(dialect.SQLite, invoiceTables()...)...)
	require.NoError(t, err)
	require.NoError(t, drv.Exec(ctx, "INSERT INTO app_Invoice (id, total, address_city) VALUES (1, 10, 'Oslo')", []any{}, nil))

	stmts, err := Upgrade(dialect.SQLite, invoiceTables(), upgradedTables())
	require.NoError(t, err)
	ok, err := p.Deploy(ctx, "billing", 2, stmts...)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tableExists(t, drv, "app_Payment"))

	rows, err := sql.QueryValues(ctx, drv, "SELECT total, note FROM app_Invoice WHERE id = 1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 10, rows[0][0])
	assert.Nil(t, rows[0][1])
}
