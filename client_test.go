package dbmeta_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ariga.io/atlas/sql/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/despencer/dbmeta"
	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql/schema"
	"github.com/despencer/dbmeta/dialect/sql/sqlmap"
)

func open(t *testing.T, opts ...dbmeta.Option) *dbmeta.Client {
	t.Helper()
	client, err := dbmeta.Open(dialect.SQLite, filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// Tag mirrors the code generated for an entity with a single string member.
type Tag struct {
	ID    int64
	Label string
}

var (
	TagTable = schema.NewTable("app_Tag", &schema.Column{Name: "id", Type: "INTEGER"}).
			AddColumns(&schema.Column{Name: "label", Type: "TEXT"})
	TagMapping = sqlmap.New(TagTable.Name,
		sqlmap.ID(func(r *Tag) *int64 { return &r.ID }),
		sqlmap.String("label", func(r *Tag) *string { return &r.Label }),
	)
)

// Deployer is the interface the generated Deploy function accepts.
type Deployer interface {
	Dialect() string
	Registered(ctx context.Context, module string, version int) (bool, error)
	Deploy(ctx context.Context, module string, version int, stmts ...string) (bool, error)
}

var _ Deployer = (*dbmeta.Client)(nil)

func deployTags(t *testing.T, client *dbmeta.Client) {
	t.Helper()
	ok, err := client.Deploy(context.Background(), "app", 1, schema.Script(client.Dialect(), TagTable)...)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOpen_Bootstrap(t *testing.T) {
	ctx := context.Background()
	deployed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	client := open(t, dbmeta.Clock(func() time.Time { return deployed }))
	assert.Equal(t, dialect.SQLite, client.Dialect())
	assert.Nil(t, client.Counters())

	packets, err := client.Packets(ctx)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	assert.Equal(t, "dbm-1", packets[0].String())
	assert.Equal(t, "seqid-1", packets[1].String())
	assert.Equal(t, deployed, packets[1].Deployed)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	client, err := dbmeta.Open(dialect.SQLite, path)
	require.NoError(t, err)
	require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		_, err := tx.GenID(ctx)
		return err
	}))
	require.NoError(t, client.Close())

	client, err = dbmeta.Open(dialect.SQLite, path)
	require.NoError(t, err)
	defer client.Close()
	packets, err := client.Packets(ctx)
	require.NoError(t, err)
	assert.Len(t, packets, 2)
	require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		id, err := tx.GenID(ctx)
		assert.Equal(t, int64(2), id)
		return err
	}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := dbmeta.Open("oracle", "db")
	require.Error(t, err)
}

func TestClient_GenID(t *testing.T) {
	ctx := context.Background()
	client := open(t)

	tx, err := client.Tx(ctx)
	require.NoError(t, err)
	id, err := tx.GenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	id, err = tx.GenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	require.NoError(t, tx.Rollback())

	// The increments were rolled back with the transaction.
	tx, err = client.Tx(ctx)
	require.NoError(t, err)
	id, err = tx.GenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.NoError(t, tx.Commit())

	tx, err = client.Tx(ctx)
	require.NoError(t, err)
	id, err = tx.GenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	require.NoError(t, tx.Commit())
}

func TestClient_Run(t *testing.T) {
	ctx := context.Background()
	client := open(t)
	deployTags(t, client)

	t.Run("commit", func(t *testing.T) {
		err := client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
			id, err := tx.GenID(ctx)
			if err != nil {
				return err
			}
			_, err = TagMapping.Insert(ctx, tx, &Tag{ID: id, Label: "red"})
			return err
		})
		require.NoError(t, err)
		require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
			tag, ok, err := TagMapping.Get(ctx, tx, 1)
			require.True(t, ok)
			assert.Equal(t, Tag{ID: 1, Label: "red"}, tag)
			return err
		}))
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
			id, err := tx.GenID(ctx)
			if err != nil {
				return err
			}
			if _, err := TagMapping.Insert(ctx, tx, &Tag{ID: id, Label: "green"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
			tags, err := TagMapping.List(ctx, tx, "")
			assert.Len(t, tags, 1)
			id, gerr := tx.GenID(ctx)
			assert.Equal(t, int64(2), id)
			return errors.Join(err, gerr)
		}))
	})

	t.Run("panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
				if _, err := tx.Execute(ctx, "DELETE FROM app_Tag"); err != nil {
					return err
				}
				panic("boom")
			})
		})
		require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
			rows, err := tx.QueryValues(ctx, "SELECT label FROM app_Tag")
			assert.Len(t, rows, 1)
			return err
		}))
	})
}

func TestTx_Execute(t *testing.T) {
	ctx := context.Background()
	client := open(t)
	deployTags(t, client)

	err := client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		n, err := tx.Execute(ctx, "INSERT INTO app_Tag (id, label) VALUES (?, ?), (?, ?)", 1, "a", 2, "b")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		n, err = tx.Execute(ctx, "UPDATE app_Tag SET label = 'c'")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = tx.Execute(ctx, "INSERT INTO app_Tag (id, label) VALUES (?, ?)", 1, "dup")
		assert.True(t, dbmeta.IsConstraintError(err))

		_, err = tx.Execute(ctx, "INSERT INTO missing (id) VALUES (1)")
		assert.True(t, dbmeta.IsQueryError(err))

		rows, err := tx.QueryValues(ctx, "SELECT id, label FROM app_Tag WHERE id = ?", 2)
		require.NoError(t, err)
		assert.Equal(t, [][]any{{int64(2), "c"}}, rows)

		_, err = tx.QueryValues(ctx, "SELECT nope FROM app_Tag")
		assert.True(t, dbmeta.IsQueryError(err))
		return nil
	})
	require.NoError(t, err)
}

func TestClient_Deploy(t *testing.T) {
	ctx := context.Background()
	client := open(t)
	deployTags(t, client)

	ok, err := client.Deploy(ctx, "app", 1, "DROP TABLE app_Tag")
	require.NoError(t, err)
	assert.False(t, ok)
	registered, err := client.Registered(ctx, "app", 1)
	require.NoError(t, err)
	assert.True(t, registered)

	ok, err = client.DeployScript(ctx, "app", 2, "ALTER TABLE app_Tag ADD COLUMN color TEXT;\nCREATE INDEX tag_label ON app_Tag (label);")
	require.NoError(t, err)
	assert.True(t, ok)

	path := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(path, "3_app.sql"), []byte("CREATE TABLE app_Note (id INTEGER NOT NULL PRIMARY KEY);\n"), 0o644))
	dir, err := migrate.NewLocalDir(path)
	require.NoError(t, err)
	n, err := client.DeployDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	packets, err := client.Packets(ctx)
	require.NoError(t, err)
	var keys []string
	for _, p := range packets {
		keys = append(keys, p.String())
	}
	assert.Equal(t, []string{"app-1", "app-2", "app-3", "dbm-1", "seqid-1"}, keys)
}

func TestClient_Debug(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := open(t, dbmeta.Debug(), dbmeta.Log(logger))
	require.NotNil(t, client.Counters())

	require.NoError(t, client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		_, err := tx.GenID(ctx)
		return err
	}))
	assert.Contains(t, buf.String(), "seqid_seq")
	assert.NotEmpty(t, client.Counters().String())
}

func TestClient_RunNested(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := open(t)

	err := client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
		assert.Same(t, tx, dbmeta.TxFromContext(ctx))
		err := client.Run(ctx, func(context.Context, *dbmeta.Tx) error { return nil })
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = client.Tx(ctx)
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = client.Deploy(ctx, "app", 1, "CREATE TABLE app_Note (id INTEGER)")
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = client.DeployScript(ctx, "app", 1, "CREATE TABLE app_Note (id INTEGER);")
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = client.Registered(ctx, "app", 1)
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = client.Packets(ctx)
		assert.ErrorIs(t, err, dbmeta.ErrTxStarted)
		_, err = tx.GenID(ctx)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err())

	// The outer context is free again once the unit of work is over.
	registered, err := client.Registered(ctx, "app", 1)
	require.NoError(t, err)
	assert.False(t, registered)
}
