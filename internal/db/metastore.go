// Package db opens and migrates the SQLite run metastore.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Metastore is the SQLite-backed store for run records and audit events.
// Writes go through a single-connection pool so concurrent workflow runs
// never contend for the writer lock; reads use a separate pool.
type Metastore struct {
	WriteDB *sql.DB
	ReadDB  *sql.DB
}

// OpenMetastore opens the write and read pools for the given SQLite file
// and applies any pending migrations.
func OpenMetastore(path string) (*Metastore, error) {
	writeDB, err := openPool(path, true)
	if err != nil {
		return nil, err
	}
	readDB, err := openPool(path, false)
	if err != nil {
		_ = writeDB.Close()
		return nil, err
	}

	if err := migrate(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, err
	}
	return &Metastore{WriteDB: writeDB, ReadDB: readDB}, nil
}

// Close releases both pools.
func (m *Metastore) Close() error {
	readErr := m.ReadDB.Close()
	writeErr := m.WriteDB.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func openPool(path string, writer bool) (*sql.DB, error) {
	mode := "read"
	if writer {
		mode = "write"
	}

	db, err := sql.Open("sqlite3", metastoreDSN(path, writer))
	if err != nil {
		return nil, fmt.Errorf("open metastore (%s): %w", mode, err)
	}
	if writer {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping metastore (%s): %w", mode, err)
	}
	return db, nil
}

// metastoreDSN builds a hardened SQLite DSN: WAL journal so audit reads
// never block a running ingestion's writes, a busy timeout instead of
// immediate SQLITE_BUSY failures, and foreign keys on so wap_events rows
// cannot outlive their wap_runs parent.
func metastoreDSN(path string, writer bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	if writer {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

// migrate applies pending goose migrations on the write pool.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate metastore: %w", err)
	}
	return nil
}
