package store

import (
	"fmt"

	"github.com/cardengine/cardengine/internal/models"
)

// RelationWrite is a single forward-edge declaration supplied by a caller;
// the mirror row is derived automatically.
type RelationWrite struct {
	Type   string
	Target string
}

// ReplaceRelationsForCard deletes only the edges owned by srcKey — its own
// forward declarations (src=srcKey, is_reverse=false) and the mirrors of
// those declarations (dst=srcKey, is_reverse=true) — then inserts the new
// forward edges and their mirrors. Other cards' forward edges pointing at
// srcKey, and their mirrors, are left untouched.
//
// A foreign-key violation on a single edge (its target card row is
// missing) is reported via warn and that edge is skipped; any other error
// propagates and aborts the whole replace.
func ReplaceRelationsForCard(ex Execer, srcKey string, rels []RelationWrite, warn func(msg string)) error {
	if _, err := ex.Exec(`DELETE FROM card_relation WHERE src_card_key = ? AND is_reverse = 0`, srcKey); err != nil {
		return fmt.Errorf("store: delete owned forward relations: %w", err)
	}
	if _, err := ex.Exec(`DELETE FROM card_relation WHERE dst_card_key = ? AND is_reverse = 1`, srcKey); err != nil {
		return fmt.Errorf("store: delete owned mirror relations: %w", err)
	}

	for _, rel := range rels {
		if _, err := ex.Exec(`
			INSERT INTO card_relation (type, src_card_key, dst_card_key, is_reverse) VALUES (?, ?, ?, 0)
		`, rel.Type, srcKey, rel.Target); err != nil {
			if isForeignKeyViolation(err) {
				if warn != nil {
					warn(fmt.Sprintf("relation %s %s->%s: target card missing, skipped", rel.Type, srcKey, rel.Target))
				}
				continue
			}
			return fmt.Errorf("store: insert relation: %w", err)
		}
		if _, err := ex.Exec(`
			INSERT INTO card_relation (type, src_card_key, dst_card_key, is_reverse) VALUES (?, ?, ?, 1)
		`, rel.Type, rel.Target, srcKey); err != nil {
			if isForeignKeyViolation(err) {
				if warn != nil {
					warn(fmt.Sprintf("relation mirror %s %s->%s: target card missing, skipped", rel.Type, rel.Target, srcKey))
				}
				continue
			}
			return fmt.Errorf("store: insert relation mirror: %w", err)
		}
	}
	return nil
}

// FindRelationsByCardKey returns every edge with src_card_key = key,
// which includes key's own forward declarations and the mirrors of edges
// declared by other cards that point at key.
func FindRelationsByCardKey(ex Execer, key string) ([]models.Relation, error) {
	rows, err := ex.Query(`
		SELECT type, src_card_key, dst_card_key, is_reverse
		FROM card_relation
		WHERE src_card_key = ?
		ORDER BY id
	`, key)
	if err != nil {
		return nil, fmt.Errorf("store: find relations by card key: %w", err)
	}
	defer rows.Close()

	var out []models.Relation
	for rows.Next() {
		var r models.Relation
		var isReverse int
		if err := rows.Scan(&r.Type, &r.SrcKey, &r.DstKey, &isReverse); err != nil {
			return nil, fmt.Errorf("store: scan relation: %w", err)
		}
		r.IsReverse = isReverse != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
