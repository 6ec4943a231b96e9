package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBMigratesToLatest(t *testing.T) {
	db := openTestDB(t)

	v, err := db.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v)

	for _, table := range []string{"users", "user_progress", "quest_definitions", "user_quests", "posts", "post_comments"} {
		var n int
		err := db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewDB(path)
	require.NoError(t, err)
	defer second.Close()

	var rows int
	require.NoError(t, second.Get(&rows, `SELECT COUNT(*) FROM schema_version`))
	assert.Equal(t, 1, rows)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO users (username, password_hash, class) VALUES ('ghost', 'x', 'mage')`)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, n)
}

func TestProgressChecksRejectInvalidLevels(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Exec(`INSERT INTO users (username, password_hash, class) VALUES ('hero', 'x', 'warrior')`)
	require.NoError(t, err)
	id, _ := res.LastInsertId()

	_, err = db.Exec(`INSERT INTO user_progress (user_id, level) VALUES (?, 0)`, id)
	assert.Error(t, err)

	_, err = db.Exec(`INSERT INTO user_progress (user_id, level, xp) VALUES (?, 1, -5)`, id)
	assert.Error(t, err)
}
