// Package sqlite implements the store driver on SQLite for development and
// small deployments. Embeddings are stored as JSON and vector search is a
// brute-force cosine scan, which is adequate for knowledge bases of a few
// thousand chunks.
package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database and ensures the schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	d := &DB{db: db, profile: profile}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS knowledge_chunk (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			embedding TEXT NOT NULL,
			created_ts INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS customer_order (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			tracking_id TEXT NOT NULL DEFAULT '',
			updated_ts INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
