package cardops

import (
	"context"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
)

// Read normalizes key, reads its file, and parses it. A missing file
// surfaces as cardapi.ErrCardNotFound (via cardfile.Read).
func (e *Engine) Read(ctx context.Context, key string) (*Card, error) {
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return nil, err
	}
	path := cardkey.BuildPath(e.cardsDir, normalized)

	f, err := cardfile.Read(path)
	if err != nil {
		return nil, err
	}
	doc, err := fmcodec.Parse(f.Data)
	if err != nil {
		return nil, err
	}
	return documentToCard(doc, path), nil
}

// documentToCard builds the outward Card shape directly from a parsed
// front-matter document, for read paths that don't need the store (plain
// Read reflects the file, not the index).
func documentToCard(doc *fmcodec.Document, path string) *Card {
	constraints, _ := constraintsToJSON(doc.Constraints)

	relations := make([]RelationInput, 0, len(doc.Relations))
	for _, r := range doc.Relations {
		relations = append(relations, RelationInput{Type: r.Type, Target: r.Target})
	}
	codeLinks := make([]CodeLinkInput, 0, len(doc.CodeLinks))
	for _, l := range doc.CodeLinks {
		codeLinks = append(codeLinks, CodeLinkInput{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}

	return &Card{
		Key:         doc.Key,
		Summary:     doc.Summary,
		Status:      doc.Status,
		Body:        doc.Body,
		Constraints: constraints,
		FilePath:    path,
		Keywords:    doc.Keywords,
		Tags:        doc.Tags,
		Relations:   relations,
		CodeLinks:   codeLinks,
	}
}
