// Package database is the credential-storage collaborator: a small
// sqlite-backed account store. Everything else the server tracks is
// in-memory and owned by the lobby package.
package database

import (
	"database/sql"
	_ "embed"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

//go:embed schema.sql
var schema string

// Store wraps the accounts database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dataSourceName and applies the
// schema. Use ":memory:" for tests.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
