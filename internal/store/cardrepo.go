package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cardengine/cardengine/internal/models"
)

// CardRow is the row shape of the card table.
type CardRow struct {
	Key         string
	Summary     string
	Status      models.Status
	Constraints []byte
	Body        string
	FilePath    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardFilter narrows ListCards.
type CardFilter struct {
	Status models.Status // empty means no filter
}

const cardColumns = `key, summary, status, constraints_json, body, file_path, created_at, updated_at`

func scanCardRow(row interface{ Scan(...any) error }) (CardRow, error) {
	var r CardRow
	var constraints sql.NullString
	var created, updated string
	if err := row.Scan(&r.Key, &r.Summary, &r.Status, &constraints, &r.Body, &r.FilePath, &created, &updated); err != nil {
		return CardRow{}, err
	}
	if constraints.Valid {
		r.Constraints = []byte(constraints.String)
	}
	r.CreatedAt = parseTimestamp(created)
	r.UpdatedAt = parseTimestamp(updated)
	return r, nil
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// FindCardByKey returns the card row for key, or nil if absent.
func FindCardByKey(ex Execer, key string) (*CardRow, error) {
	row := ex.QueryRow(`SELECT `+cardColumns+` FROM card WHERE key = ?`, key)
	r, err := scanCardRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find card by key: %w", err)
	}
	return &r, nil
}

// FindCardByFilePath returns the card row whose file_path matches path, or
// nil if absent.
func FindCardByFilePath(ex Execer, path string) (*CardRow, error) {
	row := ex.QueryRow(`SELECT `+cardColumns+` FROM card WHERE file_path = ?`, path)
	r, err := scanCardRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find card by file path: %w", err)
	}
	return &r, nil
}

// ExistsCardByKey reports whether a card row exists for key.
func ExistsCardByKey(ex Execer, key string) (bool, error) {
	var n int
	if err := ex.QueryRow(`SELECT count(*) FROM card WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("store: exists card by key: %w", err)
	}
	return n > 0, nil
}

// UpsertCard inserts or replaces the card row and its FTS mirror.
func UpsertCard(ex Execer, row CardRow) error {
	var constraints any
	if row.Constraints != nil {
		constraints = string(row.Constraints)
	}
	_, err := ex.Exec(`
		INSERT INTO card (key, summary, status, constraints_json, body, file_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			summary          = excluded.summary,
			status           = excluded.status,
			constraints_json = excluded.constraints_json,
			body             = excluded.body,
			file_path        = excluded.file_path,
			updated_at       = excluded.updated_at
	`, row.Key, row.Summary, row.Status, constraints, row.Body, row.FilePath,
		row.CreatedAt.UTC().Format(time.RFC3339), row.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: upsert card: %w", err)
	}
	if err := ftsUpsert(ex, row.Key, row.Summary, row.Body); err != nil {
		return err
	}
	return nil
}

// DeleteCardByKey deletes the card row for key. ON DELETE CASCADE removes
// its relations, classification mappings, and code links.
func DeleteCardByKey(ex Execer, key string) error {
	if _, err := ex.Exec(`DELETE FROM card WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete card: %w", err)
	}
	if err := ftsDelete(ex, key); err != nil {
		return err
	}
	return nil
}

// ListCards returns every card row matching filter.
func ListCards(ex Execer, filter CardFilter) ([]CardRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter.Status != "" {
		rows, err = ex.Query(`SELECT `+cardColumns+` FROM card WHERE status = ? ORDER BY key`, filter.Status)
	} else {
		rows, err = ex.Query(`SELECT ` + cardColumns + ` FROM card ORDER BY key`)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		r, err := scanCardRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan card row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
