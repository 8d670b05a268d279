package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbweber/homelab/hostdb/internal/migrations"
	_ "modernc.org/sqlite"
)

// Datastore owns a migrated SQLite handle.
type Datastore struct {
	DB *sql.DB
}

// New opens the SQLite database at dsn, enables foreign keys and runs
// every pending migration.
func New(dsn string) (*Datastore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Datastore{DB: db}, nil
}

// Close closes the underlying database.
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}

// WithTx runs fn inside a transaction on db. The transaction is committed
// when fn returns nil and rolled back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
