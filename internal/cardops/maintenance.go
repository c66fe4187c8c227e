package cardops

import (
	"context"

	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

// PruneOrphanClassifications removes keyword/tag name rows with no
// remaining card mapping. Supplemented: spec.md §4.4 names
// ClassificationRepo.pruneOrphans() but never gives it an
// operations-layer entry point; callers (CLI, HTTP, MCP) need one.
func (e *Engine) PruneOrphanClassifications(ctx context.Context) error {
	return store.PruneOrphanClassifications(e.store.Conn())
}

// ListCards returns every card matching filter as lightweight list
// items. Supplemented alongside PruneOrphanClassifications for the same
// reason: spec.md §4.4 describes CardRepo.list but never names an
// operations-layer entry point for it.
func (e *Engine) ListCards(ctx context.Context, status models.Status) ([]CardListItem, error) {
	rows, err := store.ListCards(e.store.Conn(), store.CardFilter{Status: status})
	if err != nil {
		return nil, err
	}
	out := make([]CardListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, CardListItem{Key: r.Key, Summary: r.Summary, Status: r.Status, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// SearchCards runs the configured full-text (or LIKE-fallback) search
// over summary/body and returns matching cards as lightweight list
// items. An empty query returns an empty result.
func (e *Engine) SearchCards(ctx context.Context, query string) ([]CardListItem, error) {
	rows, err := store.SearchCards(e.store.Conn(), query)
	if err != nil {
		return nil, err
	}
	out := make([]CardListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, CardListItem{Key: r.Key, Summary: r.Summary, Status: r.Status, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}
