package cardops

import (
	"encoding/json"
	"fmt"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/fmcodec"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

// constraintsToJSON re-encodes a front-matter "constraints" value (decoded
// from YAML as an `any`) as the opaque JSON blob the store persists. A nil
// value yields a nil blob.
func constraintsToJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: constraints: %v", cardapi.ErrCardValidation, err)
	}
	return b, nil
}

// constraintsFromJSON decodes a stored JSON blob back into the `any` shape
// fmcodec.Document.Constraints expects for re-serialization to YAML.
func constraintsFromJSON(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("cardops: decode stored constraints: %w", err)
	}
	return v, nil
}

// documentRelationWrites converts a parsed Document's forward relations
// into the shape RelationRepo.replaceForCard expects.
func documentRelationWrites(doc *fmcodec.Document) []store.RelationWrite {
	out := make([]store.RelationWrite, 0, len(doc.Relations))
	for _, r := range doc.Relations {
		out = append(out, store.RelationWrite{Type: r.Type, Target: r.Target})
	}
	return out
}

// documentCodeLinks converts a parsed Document's code links into
// models.CodeLink rows owned by cardKey.
func documentCodeLinks(doc *fmcodec.Document, cardKey string) []models.CodeLink {
	out := make([]models.CodeLink, 0, len(doc.CodeLinks))
	for _, l := range doc.CodeLinks {
		out = append(out, models.CodeLink{CardKey: cardKey, Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}
	return out
}

// cardToDocument regenerates the front-matter Document for a card's
// current store state: only forward relations appear, and classification/
// code-link/constraints fields are included only when non-empty.
func cardToDocument(c Card) (*fmcodec.Document, error) {
	constraints, err := constraintsFromJSON(c.Constraints)
	if err != nil {
		return nil, err
	}

	relFields := make([]fmcodec.RelationField, 0, len(c.Relations))
	for _, r := range c.Relations {
		relFields = append(relFields, fmcodec.RelationField{Type: r.Type, Target: r.Target})
	}
	linkFields := make([]fmcodec.CodeLinkField, 0, len(c.CodeLinks))
	for _, l := range c.CodeLinks {
		linkFields = append(linkFields, fmcodec.CodeLinkField{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}

	return &fmcodec.Document{
		Key:         c.Key,
		Summary:     c.Summary,
		Status:      c.Status,
		Tags:        c.Tags,
		Keywords:    c.Keywords,
		Relations:   relFields,
		CodeLinks:   linkFields,
		Constraints: constraints,
		Body:        c.Body,
	}, nil
}
