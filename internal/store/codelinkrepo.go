package store

import (
	"fmt"

	"github.com/cardengine/cardengine/internal/models"
)

// ReplaceCodeLinksForCard deletes cardKey's existing code links and
// reinserts the given set. A foreign-key violation on a single link is
// reported via warn and that link is skipped; any other error (including
// the unique constraint on (card_key,kind,file,symbol)) propagates.
func ReplaceCodeLinksForCard(ex Execer, cardKey string, links []models.CodeLink, warn func(msg string)) error {
	if err := DeleteCodeLinksByCardKey(ex, cardKey); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := ex.Exec(`
			INSERT INTO code_link (card_key, kind, file, symbol) VALUES (?, ?, ?, ?)
		`, cardKey, l.Kind, l.File, l.Symbol); err != nil {
			if isForeignKeyViolation(err) {
				if warn != nil {
					warn(fmt.Sprintf("code link %s %s#%s: target card missing, skipped", l.Kind, l.File, l.Symbol))
				}
				continue
			}
			return fmt.Errorf("store: insert code link: %w", err)
		}
	}
	return nil
}

// DeleteCodeLinksByCardKey removes every code link owned by cardKey.
func DeleteCodeLinksByCardKey(ex Execer, cardKey string) error {
	if _, err := ex.Exec(`DELETE FROM code_link WHERE card_key = ?`, cardKey); err != nil {
		return fmt.Errorf("store: delete code links: %w", err)
	}
	return nil
}

func scanCodeLinks(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]models.CodeLink, error) {
	var out []models.CodeLink
	for rows.Next() {
		var l models.CodeLink
		if err := rows.Scan(&l.CardKey, &l.Kind, &l.File, &l.Symbol); err != nil {
			return nil, fmt.Errorf("store: scan code link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// FindCodeLinksByCardKey returns every code link owned by cardKey.
func FindCodeLinksByCardKey(ex Execer, cardKey string) ([]models.CodeLink, error) {
	rows, err := ex.Query(`SELECT card_key, kind, file, symbol FROM code_link WHERE card_key = ? ORDER BY id`, cardKey)
	if err != nil {
		return nil, fmt.Errorf("store: find code links by card: %w", err)
	}
	defer rows.Close()
	return scanCodeLinks(rows)
}

// FindCodeLinksBySymbol returns code links matching symbol name, optionally
// narrowed to a single file.
func FindCodeLinksBySymbol(ex Execer, name string, file *string) ([]models.CodeLink, error) {
	var rows interface {
		Next() bool
		Scan(...any) error
		Err() error
		Close() error
	}
	var err error
	if file != nil {
		rows, err = ex.Query(`SELECT card_key, kind, file, symbol FROM code_link WHERE symbol = ? AND file = ? ORDER BY id`, name, *file)
	} else {
		rows, err = ex.Query(`SELECT card_key, kind, file, symbol FROM code_link WHERE symbol = ? ORDER BY id`, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find code links by symbol: %w", err)
	}
	defer rows.Close()
	return scanCodeLinks(rows)
}

// FindCodeLinksByFile returns every code link whose file matches path.
func FindCodeLinksByFile(ex Execer, path string) ([]models.CodeLink, error) {
	rows, err := ex.Query(`SELECT card_key, kind, file, symbol FROM code_link WHERE file = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("store: find code links by file: %w", err)
	}
	defer rows.Close()
	return scanCodeLinks(rows)
}
