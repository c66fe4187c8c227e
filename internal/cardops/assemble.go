package cardops

import (
	"fmt"

	"github.com/cardengine/cardengine/internal/store"
)

// assembleCard loads every auxiliary table for row's key and bundles the
// result into the outward-facing Card shape. ex may be *store.Store's
// connection or a transaction, so this can run inside or outside a
// transaction depending on the caller's needs.
func assembleCard(ex store.Execer, row store.CardRow) (Card, error) {
	keywords, err := store.FindKeywordsByCard(ex, row.Key)
	if err != nil {
		return Card{}, err
	}
	tags, err := store.FindTagsByCard(ex, row.Key)
	if err != nil {
		return Card{}, err
	}
	rels, err := store.FindRelationsByCardKey(ex, row.Key)
	if err != nil {
		return Card{}, err
	}
	links, err := store.FindCodeLinksByCardKey(ex, row.Key)
	if err != nil {
		return Card{}, err
	}

	var forward []RelationInput
	for _, r := range rels {
		if !r.IsReverse {
			forward = append(forward, RelationInput{Type: r.Type, Target: r.DstKey})
		}
	}
	var codeLinks []CodeLinkInput
	for _, l := range links {
		codeLinks = append(codeLinks, CodeLinkInput{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}

	return Card{
		Key:         row.Key,
		Summary:     row.Summary,
		Status:      row.Status,
		Body:        row.Body,
		Constraints: row.Constraints,
		FilePath:    row.FilePath,
		Keywords:    keywords,
		Tags:        tags,
		Relations:   forward,
		CodeLinks:   codeLinks,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// loadCardByKey assembles a Card for key, returning (nil, nil) if absent.
func loadCardByKey(ex store.Execer, key string) (*Card, error) {
	row, err := store.FindCardByKey(ex, key)
	if err != nil {
		return nil, fmt.Errorf("cardops: load card %q: %w", key, err)
	}
	if row == nil {
		return nil, nil
	}
	c, err := assembleCard(ex, *row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
