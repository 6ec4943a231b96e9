package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "accounts and progression",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT UNIQUE NOT NULL COLLATE NOCASE,
				password_hash TEXT NOT NULL,
				class TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				last_login_at DATETIME,
				is_active BOOLEAN DEFAULT TRUE
			);`,
			`CREATE TABLE IF NOT EXISTS user_progress (
				user_id INTEGER PRIMARY KEY,
				level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
				xp INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
				total_xp INTEGER NOT NULL DEFAULT 0,
				gold INTEGER NOT NULL DEFAULT 0 CHECK (gold >= 0),
				gems INTEGER NOT NULL DEFAULT 0 CHECK (gems >= 0),
				posts_count INTEGER NOT NULL DEFAULT 0,
				quests_completed INTEGER NOT NULL DEFAULT 0,
				rank INTEGER NOT NULL DEFAULT 0,
				class_rank INTEGER NOT NULL DEFAULT 0,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);`,
			`CREATE INDEX IF NOT EXISTS idx_progress_total_xp ON user_progress(total_xp DESC);`,
		},
	},
	{
		version: 2,
		name:    "quests",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS quest_definitions (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				type TEXT NOT NULL,
				difficulty TEXT NOT NULL,
				xp_reward INTEGER NOT NULL DEFAULT 0,
				gold_reward INTEGER NOT NULL DEFAULT 0,
				gem_reward INTEGER NOT NULL DEFAULT 0,
				requirements TEXT NOT NULL DEFAULT '[]',
				max_progress INTEGER NOT NULL DEFAULT 1 CHECK (max_progress >= 1),
				class_bonus TEXT NOT NULL DEFAULT '[]',
				ttl_seconds INTEGER NOT NULL DEFAULT 0,
				complete_on_issue BOOLEAN NOT NULL DEFAULT FALSE
			);`,
			`CREATE TABLE IF NOT EXISTS user_quests (
				user_id INTEGER NOT NULL,
				quest_id TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				progress INTEGER NOT NULL DEFAULT 0,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				completed_at DATETIME,
				issued_at DATETIME NOT NULL,
				expires_at DATETIME,
				PRIMARY KEY (user_id, quest_id),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (quest_id) REFERENCES quest_definitions(id) ON DELETE CASCADE
			);`,
			`CREATE INDEX IF NOT EXISTS idx_user_quests_expires ON user_quests(expires_at);`,
		},
	},
	{
		version: 3,
		name:    "posts",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				username TEXT NOT NULL,
				user_class TEXT NOT NULL,
				content TEXT NOT NULL,
				image_uri TEXT NOT NULL DEFAULT '',
				zone TEXT NOT NULL,
				likes INTEGER NOT NULL DEFAULT 0,
				xp_earned INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);`,
			`CREATE TABLE IF NOT EXISTS post_comments (
				id TEXT PRIMARY KEY,
				post_id TEXT NOT NULL,
				user_id INTEGER NOT NULL,
				username TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);`,
			`CREATE INDEX IF NOT EXISTS idx_posts_zone ON posts(zone, created_at DESC);`,
			`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC);`,
			`CREATE INDEX IF NOT EXISTS idx_comments_post ON post_comments(post_id, created_at);`,
		},
	},
}

// SchemaVersion is the version the newest migration brings the database to.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Version returns the schema version currently recorded in the database.
func (db *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := db.GetContext(ctx, &v, `SELECT version FROM schema_version LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

// Migrate applies every migration newer than the recorded schema version,
// each in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := db.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		db.log.Debug(fmt.Sprintf("applied migration %d: %s", m.version, m.name))
	}
	return nil
}
