package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	return NewDB(sqlDB, zap.NewNop())
}

func count(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db := setupDB(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := ExecutorFrom(ctx, db.DB).ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := setupDB(t)
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := ExecutorFrom(ctx, db.DB).ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	assert.Panics(t, func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, _ = ExecutorFrom(ctx, db.DB).ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
			panic("boom")
		})
	})
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db := setupDB(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		outer := extractTx(ctx)
		return db.WithTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, outer, extractTx(inner))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestExecutorFrom_NoTransaction(t *testing.T) {
	db := setupDB(t)
	assert.Equal(t, Executor(db.DB), ExecutorFrom(context.Background(), db.DB))
}
