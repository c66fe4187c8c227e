package cardops

import (
	"context"

	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/store"
)

// GetCardContext bundles a card with its resolved code links (empty, not
// an error, when no SymbolIndexer is configured) and the rows reached by
// its immediate upstream (reverse) and downstream (forward) edges.
func (e *Engine) GetCardContext(ctx context.Context, key string) (*CardContext, error) {
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

	rels, err := store.FindRelationsByCardKey(e.store.Conn(), normalized)
	if err != nil {
		return nil, err
	}

	var upstream, downstream []Card
	for _, r := range rels {
		target, err := loadCardByKey(e.store.Conn(), r.DstKey)
		if err != nil {
			return nil, err
		}
		if target == nil {
			continue // orphan edge
		}
		if r.IsReverse {
			upstream = append(upstream, *target)
		} else {
			downstream = append(downstream, *target)
		}
	}

	resolved := make([]ResolvedCodeLink, 0, len(card.CodeLinks))
	for _, link := range card.CodeLinks {
		entry := ResolvedCodeLink{CodeLink: link}
		if e.indexer != nil {
			if sym := e.firstExactMatch(link); sym != nil {
				entry.Resolved = sym
			}
		}
		resolved = append(resolved, entry)
	}

	return &CardContext{
		Card:            *card,
		CodeLinks:       resolved,
		UpstreamCards:   upstream,
		DownstreamCards: downstream,
	}, nil
}

// firstExactMatch asks the configured indexer for symbols matching link's
// name and file, returning the first exact (name, file) match. Indexer
// errors are treated as "no match" here — GetCardContext degrades
// gracefully rather than failing the whole bundle over one link.
func (e *Engine) firstExactMatch(link CodeLinkInput) *Symbol {
	matches, err := e.indexer.FindSymbols(link.Symbol, link.File)
	if err != nil {
		return nil
	}
	for _, m := range matches {
		if m.Name == link.Symbol && m.File == link.File {
			sym := m
			return &sym
		}
	}
	return nil
}
