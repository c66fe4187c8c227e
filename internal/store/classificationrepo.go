package store

import "fmt"

// classification kinds: table names for the two parallel (keyword, tag)
// structures. Both are interned name tables plus a card mapping table.
const (
	kindKeyword = "keyword"
	kindTag     = "tag"
)

func mappingTable(kind string) string {
	if kind == kindKeyword {
		return "card_keyword"
	}
	return "card_tag"
}

func foreignKeyColumn(kind string) string {
	if kind == kindKeyword {
		return "keyword_id"
	}
	return "tag_id"
}

// replaceClassification interns each name (inserting the name row only if
// absent) then replaces the card's mappings to exactly the given set. An
// empty names list deletes existing mappings without inserting any.
func replaceClassification(ex Execer, kind, cardKey string, names []string) error {
	mapping := mappingTable(kind)
	fkCol := foreignKeyColumn(kind)

	if _, err := ex.Exec(`DELETE FROM `+mapping+` WHERE card_key = ?`, cardKey); err != nil {
		return fmt.Errorf("store: delete %s mappings: %w", kind, err)
	}

	for _, name := range names {
		if _, err := ex.Exec(`INSERT OR IGNORE INTO `+kind+` (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("store: intern %s %q: %w", kind, name, err)
		}
		var id int64
		if err := ex.QueryRow(`SELECT id FROM `+kind+` WHERE name = ?`, name).Scan(&id); err != nil {
			return fmt.Errorf("store: lookup %s %q: %w", kind, name, err)
		}
		if _, err := ex.Exec(`INSERT OR IGNORE INTO `+mapping+` (card_key, `+fkCol+`) VALUES (?, ?)`, cardKey, id); err != nil {
			return fmt.Errorf("store: map %s %q to card: %w", kind, name, err)
		}
	}
	return nil
}

// findClassification returns the names mapped to cardKey for kind, sorted
// by name.
func findClassification(ex Execer, kind, cardKey string) ([]string, error) {
	mapping := mappingTable(kind)
	fkCol := foreignKeyColumn(kind)
	rows, err := ex.Query(`
		SELECT k.name
		FROM `+mapping+` m
		JOIN `+kind+` k ON k.id = m.`+fkCol+`
		WHERE m.card_key = ?
		ORDER BY k.name
	`, cardKey)
	if err != nil {
		return nil, fmt.Errorf("store: find %s by card: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", kind, err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ReplaceKeywords replaces the card's keyword mappings.
func ReplaceKeywords(ex Execer, cardKey string, names []string) error {
	return replaceClassification(ex, kindKeyword, cardKey, names)
}

// ReplaceTags replaces the card's tag mappings.
func ReplaceTags(ex Execer, cardKey string, names []string) error {
	return replaceClassification(ex, kindTag, cardKey, names)
}

// FindKeywordsByCard returns the keywords mapped to cardKey.
func FindKeywordsByCard(ex Execer, cardKey string) ([]string, error) {
	return findClassification(ex, kindKeyword, cardKey)
}

// FindTagsByCard returns the tags mapped to cardKey.
func FindTagsByCard(ex Execer, cardKey string) ([]string, error) {
	return findClassification(ex, kindTag, cardKey)
}

// PruneOrphanClassifications removes keyword/tag name rows with no
// remaining mapping.
func PruneOrphanClassifications(ex Execer) error {
	if _, err := ex.Exec(`DELETE FROM keyword WHERE id NOT IN (SELECT DISTINCT keyword_id FROM card_keyword)`); err != nil {
		return fmt.Errorf("store: prune orphan keywords: %w", err)
	}
	if _, err := ex.Exec(`DELETE FROM tag WHERE id NOT IN (SELECT DISTINCT tag_id FROM card_tag)`); err != nil {
		return fmt.Errorf("store: prune orphan tags: %w", err)
	}
	return nil
}
