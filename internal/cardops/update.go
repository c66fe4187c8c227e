package cardops

import (
	"context"
	"fmt"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/safewrite"
	"github.com/cardengine/cardengine/internal/store"
	"github.com/cardengine/cardengine/internal/validate"
)

// Update applies fields to the card at key: a nil field leaves the prior
// value untouched; an explicitly-set (possibly empty) slice or pointer
// replaces or deletes it. On a post-commit file-write failure, the
// compensator re-syncs the DB from the file, which still holds the prior
// state.
func (e *Engine) Update(ctx context.Context, key string, fields UpdateFields) (*Card, error) {
	if err := validateUpdateFields(fields); err != nil {
		return nil, err
	}
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return nil, err
	}
	path := cardkey.BuildPath(e.cardsDir, normalized)

	unlock, err := e.locks.Lock(ctx, normalized)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *Card
	err = retry.Do(ctx, e.retryOpts, func() error {
		if fields.relationsSet {
			if err := e.checkRelationTypes(fields.Relations); err != nil {
				return err
			}
		}

		f, err := cardfile.Read(path)
		if err != nil {
			return err
		}
		doc, err := fmcodec.Parse(f.Data)
		if err != nil {
			return err
		}
		if doc.Key != normalized {
			return notFoundError(normalized)
		}

		nextDoc, err := composeNextDocument(doc, fields)
		if err != nil {
			return err
		}

		card, werr := safewrite.Write(
			func() (Card, error) { return e.updateDBAction(normalized, path, nextDoc, fields) },
			func(c Card) error { return writeCardFile(c) },
			func(c Card) error { _, err := e.syncFromFile(c.FilePath); return err },
		)
		if werr != nil {
			return werr
		}
		result = &card
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(models.EventUpdated, normalized)
	return result, nil
}

func validateUpdateFields(fields UpdateFields) error {
	var relIn []validate.RelationInput
	if fields.relationsSet {
		relIn = toValidateRelations(fields.Relations)
	}
	var linkIn []validate.CodeLinkInput
	if fields.codeLinksSet {
		linkIn = toValidateCodeLinks(fields.CodeLinks)
	}
	return validate.Validate(validate.Input{
		Summary:   fields.Summary,
		Body:      fields.Body,
		Keywords:  fields.Keywords,
		Tags:      fields.Tags,
		Relations: relIn,
		CodeLinks: linkIn,
	})
}

// composeNextDocument merges fields into doc, producing the full next
// front-matter state: unset fields are carried over unchanged.
func composeNextDocument(doc *fmcodec.Document, fields UpdateFields) (*fmcodec.Document, error) {
	next := *doc

	if fields.Summary != nil {
		next.Summary = *fields.Summary
	}
	if fields.Body != nil {
		next.Body = *fields.Body
	}
	if fields.keywordsSet {
		next.Keywords = fields.Keywords
	}
	if fields.tagsSet {
		next.Tags = fields.Tags
	}
	if fields.relationsSet {
		rf := make([]fmcodec.RelationField, 0, len(fields.Relations))
		for _, r := range fields.Relations {
			rf = append(rf, fmcodec.RelationField{Type: r.Type, Target: r.Target})
		}
		next.Relations = rf
	}
	if fields.codeLinksSet {
		lf := make([]fmcodec.CodeLinkField, 0, len(fields.CodeLinks))
		for _, l := range fields.CodeLinks {
			lf = append(lf, fmcodec.CodeLinkField{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
		}
		next.CodeLinks = lf
	}
	if fields.constraintsSet {
		if fields.Constraints == nil {
			next.Constraints = nil
		} else {
			v, err := constraintsFromJSON(fields.Constraints)
			if err != nil {
				return nil, err
			}
			next.Constraints = v
		}
	}

	return &next, nil
}

func (e *Engine) updateDBAction(key, path string, doc *fmcodec.Document, fields UpdateFields) (Card, error) {
	tx, err := e.store.Begin()
	if err != nil {
		return Card{}, fmt.Errorf("cardops: begin update transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.FindCardByKey(tx, key)
	if err != nil {
		return Card{}, err
	}
	if existing == nil {
		return Card{}, notFoundError(key)
	}

	constraints, err := constraintsToJSON(doc.Constraints)
	if err != nil {
		return Card{}, err
	}

	row := store.CardRow{
		Key:         key,
		Summary:     doc.Summary,
		Status:      existing.Status,
		Constraints: constraints,
		Body:        doc.Body,
		FilePath:    path,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   nowUTC(),
	}
	if err := store.UpsertCard(tx, row); err != nil {
		return Card{}, err
	}

	if fields.relationsSet {
		if err := store.ReplaceRelationsForCard(tx, key, documentRelationWrites(doc), e.warnf); err != nil {
			return Card{}, err
		}
	}
	if fields.keywordsSet {
		if err := store.ReplaceKeywords(tx, key, doc.Keywords); err != nil {
			return Card{}, err
		}
	}
	if fields.tagsSet {
		if err := store.ReplaceTags(tx, key, doc.Tags); err != nil {
			return Card{}, err
		}
	}
	if fields.codeLinksSet {
		if err := store.ReplaceCodeLinksForCard(tx, key, documentCodeLinks(doc, key), e.warnf); err != nil {
			return Card{}, err
		}
	}

	card, err := assembleCard(tx, row)
	if err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, fmt.Errorf("cardops: commit update transaction: %w", err)
	}
	return card, nil
}

// UpdateStatus changes only a card's status column and front-matter
// status field; shape and compensation match Update exactly.
func (e *Engine) UpdateStatus(ctx context.Context, key string, status models.Status) (*Card, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q is not a recognized status", cardapi.ErrCardValidation, status)
	}
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return nil, err
	}
	path := cardkey.BuildPath(e.cardsDir, normalized)

	unlock, err := e.locks.Lock(ctx, normalized)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *Card
	err = retry.Do(ctx, e.retryOpts, func() error {
		f, ferr := cardfile.Read(path)
		if ferr != nil {
			return ferr
		}
		doc, perr := fmcodec.Parse(f.Data)
		if perr != nil {
			return perr
		}
		if doc.Key != normalized {
			return notFoundError(normalized)
		}
		doc.Status = status

		card, werr := safewrite.Write(
			func() (Card, error) { return e.updateStatusDBAction(normalized, path, doc, status) },
			func(c Card) error { return writeCardFile(c) },
			func(c Card) error { _, err := e.syncFromFile(c.FilePath); return err },
		)
		if werr != nil {
			return werr
		}
		result = &card
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(models.EventUpdated, normalized)
	return result, nil
}

func (e *Engine) updateStatusDBAction(key, path string, doc *fmcodec.Document, status models.Status) (Card, error) {
	tx, err := e.store.Begin()
	if err != nil {
		return Card{}, fmt.Errorf("cardops: begin update-status transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.FindCardByKey(tx, key)
	if err != nil {
		return Card{}, err
	}
	if existing == nil {
		return Card{}, notFoundError(key)
	}

	row := *existing
	row.Status = status
	row.FilePath = path
	row.UpdatedAt = nowUTC()
	if err := store.UpsertCard(tx, row); err != nil {
		return Card{}, err
	}

	card, err := assembleCard(tx, row)
	if err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, fmt.Errorf("cardops: commit update-status transaction: %w", err)
	}
	return card, nil
}
