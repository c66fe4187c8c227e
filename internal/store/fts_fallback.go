//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

// initFTS is a no-op: without the sqlite_fts5 build tag, search falls back
// to a LIKE scan over the card table directly.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ Execer, _, _, _ string) error { return nil }

func ftsDelete(_ Execer, _ string) error { return nil }

// SearchCards performs a LIKE-based scan (fallback when FTS5 is not
// compiled in). Empty input returns an empty result with no error.
func SearchCards(ex Execer, query string) ([]CardRow, error) {
	if query == "" {
		return nil, nil
	}
	like := "%" + query + "%"
	rows, err := ex.Query(`
		SELECT `+cardColumns+`
		FROM card
		WHERE summary LIKE ? OR body LIKE ?
		ORDER BY key
	`, like, like)
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
