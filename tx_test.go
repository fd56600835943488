package dbmeta

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/despencer/dbmeta/dialect"
	"github.com/despencer/dbmeta/dialect/sql"
)

func mockTx(t *testing.T, name string) (*Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := sql.OpenDB(name, db)
	mock.ExpectBegin()
	tx, err := (&Client{driver: drv}).Tx(context.Background())
	require.NoError(t, err)
	return tx, mock
}

func TestTx_GenID(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres", func(t *testing.T) {
		tx, mock := mockTx(t, dialect.Postgres)
		mock.ExpectQuery(`SELECT "id" FROM "seqid_seq"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
		mock.ExpectExec(`UPDATE "seqid_seq" SET "id" = \$1`).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		id, err := tx.GenID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(41), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql bytes", func(t *testing.T) {
		tx, mock := mockTx(t, dialect.MySQL)
		mock.ExpectQuery("SELECT `id` FROM `seqid_seq`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow([]byte("7")))
		mock.ExpectExec("UPDATE `seqid_seq` SET `id` = ?").
			WithArgs(int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		id, err := tx.GenID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		tx, mock := mockTx(t, dialect.SQLite)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		_, err := tx.GenID(ctx)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "dbmeta: seqid_seq not found", err.Error())
	})

	t.Run("several rows", func(t *testing.T) {
		tx, mock := mockTx(t, dialect.SQLite)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(5)))
		_, err := tx.GenID(ctx)
		assert.True(t, IsNotSingular(err))
	})

	t.Run("update fails", func(t *testing.T) {
		tx, mock := mockTx(t, dialect.SQLite)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec("UPDATE").WillReturnError(errors.New("disk I/O error"))
		_, err := tx.GenID(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dbmeta: advance id sequence")
	})
}

func TestClient_TxInContext(t *testing.T) {
	tx, _ := mockTx(t, dialect.SQLite)
	ctx := NewTxContext(context.Background(), tx)
	assert.Same(t, tx, TxFromContext(ctx))
	assert.Nil(t, TxFromContext(context.Background()))

	_, err := tx.Client().Tx(ctx)
	require.ErrorIs(t, err, ErrTxStarted)
}

func TestClient_RunRollbackFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := &Client{driver: sql.OpenDB(dialect.SQLite, db)}
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	boom := errors.New("boom")
	err = client.Run(context.Background(), func(context.Context, *Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	var rerr *RollbackError
	require.ErrorAs(t, err, &rerr)
	assert.EqualError(t, rerr, "dbmeta: rollback failed: connection lost")
}
