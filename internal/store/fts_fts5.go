//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

// initFTS creates the card_fts virtual table and the insert/delete/update
// triggers that mirror it from the card table.
func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS card_fts USING fts5(
			key UNINDEXED,
			summary,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);

		CREATE TRIGGER IF NOT EXISTS card_ai AFTER INSERT ON card BEGIN
			INSERT INTO card_fts (rowid, key, summary, body) VALUES (new.rowid, new.key, new.summary, new.body);
		END;

		CREATE TRIGGER IF NOT EXISTS card_ad AFTER DELETE ON card BEGIN
			INSERT INTO card_fts (card_fts, rowid, key, summary, body) VALUES ('delete', old.rowid, old.key, old.summary, old.body);
		END;

		CREATE TRIGGER IF NOT EXISTS card_au AFTER UPDATE ON card BEGIN
			INSERT INTO card_fts (card_fts, rowid, key, summary, body) VALUES ('delete', old.rowid, old.key, old.summary, old.body);
			INSERT INTO card_fts (rowid, key, summary, body) VALUES (new.rowid, new.key, new.summary, new.body);
		END;
	`)
	return err
}

// ftsUpsert is a no-op: the triggers keep card_fts in sync with card.
func ftsUpsert(_ Execer, _, _, _ string) error { return nil }

// ftsDelete is a no-op: the triggers keep card_fts in sync with card.
func ftsDelete(_ Execer, _ string) error { return nil }

// SearchCards runs an FTS5 MATCH query joined back to the card table.
// Empty input returns an empty result with no error.
func SearchCards(ex Execer, query string) ([]CardRow, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := ex.Query(`
		SELECT c.key, c.summary, c.status, c.constraints_json, c.body, c.file_path, c.created_at, c.updated_at
		FROM card_fts f
		JOIN card c ON c.key = f.key
		WHERE card_fts MATCH ?
		ORDER BY rank
	`, query)
	if err != nil {
		return nil, fmt.Errorf("store: search cards: %w", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		r, err := scanCardRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan search row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
