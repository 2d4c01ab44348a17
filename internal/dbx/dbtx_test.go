package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE videos (id INTEGER PRIMARY KEY, video TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func videoCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&n))
	return n
}

func insert(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO videos (video) VALUES ('https://youtu.be/x')`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openSQLite(t)

	err := WithTx(context.Background(), db, nil, insert)
	require.NoError(t, err)
	assert.Equal(t, 1, videoCount(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openSQLite(t)
	errBoom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert(ctx, tx))
		return errBoom
	})

	assert.Same(t, errBoom, err)
	assert.Equal(t, 0, videoCount(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openSQLite(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insert(ctx, tx))
			panic("kaput")
		})
	})
	assert.Equal(t, 0, videoCount(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "TX_BEGIN_FAILED", oopsErr.Code())
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })

	require.ErrorIs(t, err, sql.ErrConnDone)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "TX_COMMIT_FAILED", oopsErr.Code())
	assert.NoError(t, mock.ExpectationsWereMet())
}
