package store

import "fmt"

// migrations is the forward-only, serially applied schema history.
// Each entry is executed exactly once, in order, inside its own
// transaction, and recorded in schema_migrations.
var migrations = []string{
	migration001InitialSchema,
}

const migration001InitialSchema = `
CREATE TABLE IF NOT EXISTS card (
	key              TEXT PRIMARY KEY,
	summary          TEXT NOT NULL,
	status           TEXT NOT NULL,
	constraints_json TEXT,
	body             TEXT NOT NULL DEFAULT '',
	file_path        TEXT NOT NULL UNIQUE,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS card_relation (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	type         TEXT NOT NULL,
	src_card_key TEXT NOT NULL REFERENCES card(key) ON DELETE CASCADE ON UPDATE CASCADE,
	dst_card_key TEXT NOT NULL REFERENCES card(key) ON DELETE CASCADE ON UPDATE CASCADE,
	is_reverse   INTEGER NOT NULL DEFAULT 0,
	UNIQUE(type, src_card_key, dst_card_key)
);
CREATE INDEX IF NOT EXISTS idx_card_relation_src ON card_relation(src_card_key);
CREATE INDEX IF NOT EXISTS idx_card_relation_dst ON card_relation(dst_card_key);

CREATE TABLE IF NOT EXISTS keyword (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS card_keyword (
	card_key   TEXT NOT NULL REFERENCES card(key) ON DELETE CASCADE,
	keyword_id INTEGER NOT NULL REFERENCES keyword(id) ON DELETE CASCADE,
	PRIMARY KEY (card_key, keyword_id)
);

CREATE TABLE IF NOT EXISTS tag (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS card_tag (
	card_key TEXT NOT NULL REFERENCES card(key) ON DELETE CASCADE,
	tag_id   INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
	PRIMARY KEY (card_key, tag_id)
);

CREATE TABLE IF NOT EXISTS code_link (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	card_key TEXT NOT NULL REFERENCES card(key) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	file     TEXT NOT NULL,
	symbol   TEXT NOT NULL,
	UNIQUE(card_key, kind, file, symbol)
);
CREATE INDEX IF NOT EXISTS idx_code_link_card_key ON code_link(card_key);
CREATE INDEX IF NOT EXISTS idx_code_link_symbol ON code_link(symbol);
CREATE INDEX IF NOT EXISTS idx_code_link_file ON code_link(file);
`

// migrate applies every migration not yet recorded in schema_migrations, in
// order, each inside its own transaction.
func (s *Store) migrate() error {
	if _, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]struct{})
	rows, err := s.conn.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for i, sqlText := range migrations {
		version := i + 1
		if _, ok := applied[version]; ok {
			continue
		}
		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", version, err)
		}
		if _, err := tx.Exec(sqlText); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: apply: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", version, err)
		}
	}
	return nil
}
