// Package store is the embedded relational index for cards: four typed
// repositories (card, relation, classification, code-link) backed by
// SQLite, with forward-only migrations and an FTS5-or-LIKE search path.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Execer is satisfied by both *sql.DB and *sql.Tx, letting repository
// functions run either standalone or as part of a caller-managed
// transaction (the shape cardops' safe writes need to bundle a card write
// with its relations/keywords/tags/code-links in one commit).
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps the underlying SQLite connection.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at dsn, applies pragmas and
// migrations, and returns a ready Store.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Begin starts a new transaction. Callers are responsible for Commit or
// Rollback.
func (s *Store) Begin() (*sql.Tx, error) {
	return s.conn.Begin()
}

// Conn exposes the raw *sql.DB for read paths that don't need a
// transaction (list/search/read-only traversal).
func (s *Store) Conn() *sql.DB {
	return s.conn
}
