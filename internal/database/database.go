package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tahcohcat/questagram/internal/logger"
)

type DB struct {
	*sqlx.DB
	log *logger.Log
}

// NewDB opens the SQLite database at path and brings its schema up to date.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = "questagram.db" // Default SQLite file
	}

	db, err := sqlx.Connect("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := &DB{DB: db, log: logger.Named("database")}

	if err := dbWrapper.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	dbWrapper.log.Info(fmt.Sprintf("Database %s ready at schema version %d", path, SchemaVersion()))
	return dbWrapper, nil
}

// dsn enables foreign keys, waits on locks instead of failing, and makes
// every transaction take the write lock up front so concurrent
// read-then-write transactions serialise instead of deadlocking.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
