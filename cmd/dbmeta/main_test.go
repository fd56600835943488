package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/despencer/dbmeta"
	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

const (
	shop   = "testdata/shop.yaml"
	shopV2 = "testdata/shop_v2.yaml"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func money(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("types:\n  money: INTEGER\n"), 0o644))
	return path
}

func TestTables(t *testing.T) {
	out, err := run(t, "tables", "--config", money(t), shop)
	require.NoError(t, err)
	assert.Contains(t, out, "-- shop version 1 (sqlite)\n")
	customer := "CREATE TABLE `crm_Customer` (`id` INTEGER NOT NULL PRIMARY KEY, `name` TEXT, `address_city` TEXT);"
	assert.Contains(t, out, customer)
	assert.Contains(t, out, "FOREIGN KEY (`customer`) REFERENCES `crm_Customer` (`id`)")
	assert.Less(t, strings.Index(out, "crm_Customer` ("), strings.Index(out, "crm_Order` ("))

	_, err = run(t, "tables", shop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"money"`)
}

func TestGen(t *testing.T) {
	target := t.TempDir()
	_, err := run(t, "gen", "--config", money(t), "--target", target, "--package", "example.com/app/store", shop)
	require.NoError(t, err)
	for _, name := range []string{"crm_order.go", "crm_customer.go", "packet.go"} {
		buf, err := os.ReadFile(filepath.Join(target, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(buf), "package store")
	}

	_, err = run(t, "gen", "--config", money(t), shop)
	require.EqualError(t, err, "missing target directory: set --target or target in the config file")

	_, err = run(t, "gen", "--config", money(t), "--target", target, "--previous", shop, shopV2)
	require.NoError(t, err)
	buf, err := os.ReadFile(filepath.Join(target, "packet.go"))
	require.NoError(t, err)
	assert.Contains(t, string(buf), "PreviousVersion = 1")
	assert.Contains(t, string(buf), "schema.Upgrade(d.Dialect(), PreviousTables(), Tables())")
}

func TestDeployAndCheck(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")
	cfg := money(t)

	out, err := run(t, "deploy", "--config", cfg, "--dsn", dsn, shop)
	require.NoError(t, err)
	assert.Equal(t, "deployed shop-1\n", out)
	out, err = run(t, "deploy", "--config", cfg, "--dsn", dsn, shop)
	require.NoError(t, err)
	assert.Equal(t, "shop-1 already deployed\n", out)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_report.sql"), []byte("CREATE TABLE report_Total (id INTEGER NOT NULL PRIMARY KEY);\n"), 0o644))
	out, err = run(t, "deploy", "--dsn", dsn, "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "deployed 1 packets from "+dir+"\n", out)

	out, err = run(t, "check", "--dsn", dsn)
	require.NoError(t, err)
	assert.Regexp(t, `MODULE\s+VERSION\s+DEPLOYED`, out)
	for _, module := range []string{"dbm", "report", "seqid", "shop"} {
		assert.Regexp(t, `(?m)^`+module+`\s+1\s+`, out)
	}
}

func TestUpgrade(t *testing.T) {
	cfg := money(t)
	out, err := run(t, "tables", "--config", cfg, "--previous", shop, shopV2)
	require.NoError(t, err)
	for _, want := range []string{
		"-- shop version 2 from version 1 (sqlite)\n",
		"-- Warnings:\n",
		"--   - crm_Customer.email: new column is NULL for existing rows\n",
		"ALTER TABLE `crm_Customer` ADD COLUMN `email` TEXT;\n",
		"CREATE TABLE `crm_Refund` (",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "CREATE TABLE `crm_Order`")

	dsn := filepath.Join(t.TempDir(), "shop.db")
	_, err = run(t, "deploy", "--config", cfg, "--dsn", dsn, shop)
	require.NoError(t, err)
	_, err = run(t, "deploy", "--config", cfg, "--dsn", dsn, shopV2)
	require.ErrorIs(t, err, schema.ErrMigration)
	out, err = run(t, "deploy", "--config", cfg, "--dsn", dsn, "--previous", shop, shopV2)
	require.NoError(t, err)
	assert.Equal(t, "deployed shop-2\n", out)
	out, err = run(t, "check", "--dsn", dsn)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^shop\s+2\s+`, out)

	// Without the previous version registered the full script is deployed.
	fresh := filepath.Join(t.TempDir(), "fresh.db")
	out, err = run(t, "deploy", "--config", cfg, "--dsn", fresh, "--previous", shop, shopV2)
	require.NoError(t, err)
	assert.Equal(t, "deployed shop-2\n", out)

	t.Run("breaking", func(t *testing.T) {
		v3 := filepath.Join(t.TempDir(), "shop_v3.yaml")
		require.NoError(t, os.WriteFile(v3, []byte(`name: shop
version: 3
namespaces:
  - name: crm
    entities:
      - name: Customer
        members:
          - {name: name, type: string}
`), 0o644))
		_, err := run(t, "tables", "--config", cfg, "--previous", shop, v3)
		require.ErrorIs(t, err, schema.ErrBreakingChange)
		assert.Contains(t, err.Error(), "crm_Customer.address_city: column will be dropped")
		assert.Contains(t, err.Error(), "crm_Order: table will be dropped")

		out, err := run(t, "tables", "--config", cfg, "--previous", shop, "--allow-drop", v3)
		require.NoError(t, err)
		assert.Contains(t, out, "column will be dropped [BREAKING]")
		assert.Contains(t, out, "ALTER TABLE `crm_Customer` DROP COLUMN `address_city`;\n")
		assert.Contains(t, out, "DROP TABLE `crm_Order`;\n")

		_, err = run(t, "tables", "--config", cfg, "--allow-drop", shop)
		require.EqualError(t, err, "--allow-drop needs --previous")
		_, err = run(t, "tables", "--config", cfg, "--previous", shopV2, shop)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "previous version must be lower than 1")
	})
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "shop.db")
	cfg := money(t)
	_, err := run(t, "deploy", "--config", cfg, "--dsn", dsn, shop)
	require.NoError(t, err)

	client, err := dbmeta.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	err = client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		_, err := tx.Execute(ctx, "INSERT INTO crm_Customer (id, name, address_city) VALUES (?, ?, ?)", 7, "Ada", "Oslo")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	dir := filepath.Join(t.TempDir(), "dump")
	out, err := run(t, "dump", "--config", cfg, "--dsn", dsn, "--out", dir, shop)
	require.NoError(t, err)
	assert.Equal(t, "dumped 2 tables of shop-1 to "+dir+"\n", out)

	read := func(name string) dumpFile {
		t.Helper()
		buf, err := os.ReadFile(filepath.Join(dir, name+".data"))
		require.NoError(t, err)
		var d dumpFile
		require.NoError(t, json.Unmarshal(buf, &d))
		return d
	}
	customers := read("crm_Customer")
	assert.Equal(t, "crm_Customer", customers.Table)
	require.Len(t, customers.Data, 1)
	assert.Equal(t, map[string]any{"id": float64(7), "name": "Ada", "address_city": "Oslo"}, customers.Data[0])

	orders := read("crm_Order")
	assert.Equal(t, "crm_Order", orders.Table)
	assert.NotNil(t, orders.Data)
	assert.Empty(t, orders.Data)

	list := read(TablesFile)
	assert.Equal(t, []map[string]any{
		{"name": "crm_Customer", "rows": float64(1)},
		{"name": "crm_Order", "rows": float64(0)},
	}, list.Data)

	_, err = run(t, "dump", "--config", cfg, "--dsn", dsn, shop)
	require.EqualError(t, err, "missing output directory: set --out")
}

func TestConfig(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cfg.db")
	path := filepath.Join(t.TempDir(), "dbmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: sqlite\ndsn: "+dsn+"\n"), 0o644))
	out, err := run(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seqid")

	tests := map[string]struct {
		args []string
		err  string
	}{
		"no dsn":        {args: []string{"check"}, err: "missing data source name: set --dsn or dsn in the config file"},
		"dialect":       {args: []string{"check", "--dialect", "oracle"}, err: `config: unsupported dialect "oracle"`},
		"storage":       {args: []string{"tables", "--storage", "oracle", shop}, err: `config: unsupported storage "oracle"`},
		"nothing":       {args: []string{"deploy", "--dsn", dsn}, err: "nothing to deploy: pass a schema document or --dir"},
		"mixed storage": {args: []string{"deploy", "--dsn", dsn, "--storage", "postgres", "--config", money(t), shop}, err: "storage postgres renders postgres tables, database is sqlite"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.EqualError(t, err, tt.err)
		})
	}

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dialekt: sqlite\n"), 0o644))
		_, err := run(t, "check", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialekt")
	})
}

func TestWatchLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))
	w, err := newWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan struct{}, 16)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- watchLoop(ctx, w, path, logger, func() error {
			runs <- struct{}{}
			return nil
		})
	}()

	// Other files of the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("name: b\n"), 0o644))
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration after the schema changed")
	}
	cancel()
	require.NoError(t, <-done)
}
