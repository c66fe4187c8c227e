package cardops

import (
	"context"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
)

// ExportCardToFile regenerates a card's file from its current DB state:
// only forward relations appear in the front matter, and classification/
// code-link/constraints fields appear only when non-empty. A missing
// card row surfaces as cardapi.ErrCardNotFound.
func (e *Engine) ExportCardToFile(ctx context.Context, key string) (*Card, error) {
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return nil, err
	}

	card, err := loadCardByKey(e.store.Conn(), normalized)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, notFoundError(normalized)
	}
	if card.FilePath == "" {
		card.FilePath = cardkey.BuildPath(e.cardsDir, normalized)
	}

	doc, err := cardToDocument(*card)
	if err != nil {
		return nil, err
	}
	data, err := fmcodec.Serialize(doc)
	if err != nil {
		return nil, err
	}
	if err := cardfile.Write(card.FilePath, data); err != nil {
		return nil, err
	}
	return card, nil
}
