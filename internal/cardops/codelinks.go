package cardops

import (
	"context"
	"fmt"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

// ResolveCardCodeLinks resolves key's code links against the configured
// SymbolIndexer: the first exact (name, file) match for each link. It
// requires an indexer; without one, it raises
// cardapi.ErrGildashNotConfigured.
func (e *Engine) ResolveCardCodeLinks(ctx context.Context, key string) ([]ResolvedCodeLink, error) {
	if e.indexer == nil {
		return nil, fmt.Errorf("%w: resolveCardCodeLinks requires a symbol indexer", cardapi.ErrGildashNotConfigured)
	}
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

	out := make([]ResolvedCodeLink, 0, len(card.CodeLinks))
	for _, link := range card.CodeLinks {
		entry := ResolvedCodeLink{CodeLink: link}
		if sym := e.firstExactMatch(link); sym != nil {
			entry.Resolved = sym
		}
		out = append(out, entry)
	}
	return out, nil
}

// ValidateCodeLinks resolves key's code links and reports each one that
// did not resolve: "symbol-not-found" if the indexer ran cleanly but
// found no exact match, "file-not-indexed" if the indexer itself errored
// for that link's file. It requires an indexer; without one, it raises
// cardapi.ErrGildashNotConfigured.
func (e *Engine) ValidateCodeLinks(ctx context.Context, key string) ([]LinkValidationIssue, error) {
	if e.indexer == nil {
		return nil, fmt.Errorf("%w: validateCodeLinks requires a symbol indexer", cardapi.ErrGildashNotConfigured)
	}
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

	var issues []LinkValidationIssue
	for _, link := range card.CodeLinks {
		matches, ierr := e.indexer.FindSymbols(link.Symbol, link.File)
		if ierr != nil {
			issues = append(issues, LinkValidationIssue{CodeLink: link, Reason: "file-not-indexed"})
			continue
		}
		found := false
		for _, m := range matches {
			if m.Name == link.Symbol && m.File == link.File {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, LinkValidationIssue{CodeLink: link, Reason: "symbol-not-found"})
		}
	}
	return issues, nil
}

// FindCardsBySymbol queries the code-link index for name (optionally
// narrowed to file) and returns the owning card rows, deduplicated by
// key, in discovery order. Links whose card row no longer exists are
// skipped.
func (e *Engine) FindCardsBySymbol(ctx context.Context, name string, file *string) ([]Card, error) {
	links, err := store.FindCodeLinksBySymbol(e.store.Conn(), name, file)
	if err != nil {
		return nil, err
	}
	return e.cardsForLinks(links)
}

// FindAffectedCards looks up code links by file for every entry in
// files, and returns the unique owning card rows. An empty files list
// returns an empty result.
func (e *Engine) FindAffectedCards(ctx context.Context, files []string) ([]Card, error) {
	var links []models.CodeLink
	for _, f := range files {
		rows, err := store.FindCodeLinksByFile(e.store.Conn(), f)
		if err != nil {
			return nil, err
		}
		links = append(links, rows...)
	}
	return e.cardsForLinks(links)
}

// cardsForLinks dedupes links by owning card key (preserving discovery
// order) and loads each surviving card row, skipping any key with no
// remaining card row.
func (e *Engine) cardsForLinks(links []models.CodeLink) ([]Card, error) {
	seen := make(map[string]bool)
	var out []Card
	for _, l := range links {
		if seen[l.CardKey] {
			continue
		}
		seen[l.CardKey] = true
		card, err := loadCardByKey(e.store.Conn(), l.CardKey)
		if err != nil {
			return nil, err
		}
		if card == nil {
			continue
		}
		out = append(out, *card)
	}
	return out, nil
}
