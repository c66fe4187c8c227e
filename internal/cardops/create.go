package cardops

import (
	"context"
	"fmt"
	"time"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/safewrite"
	"github.com/cardengine/cardengine/internal/store"
	"github.com/cardengine/cardengine/internal/validate"
)

// Create validates in, normalizes its slug, and — under the key's lock —
// inserts the card row (plus relations/mirrors/keywords/tags/code links)
// in one transaction before writing the card file. If the file write
// fails, the card row is deleted to compensate.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Card, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	key, err := cardkey.Normalize(in.Slug)
	if err != nil {
		return nil, err
	}
	path := cardkey.BuildPath(e.cardsDir, key)

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}

	unlock, err := e.locks.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *Card
	err = retry.Do(ctx, e.retryOpts, func() error {
		if err := e.checkRelationTypes(in.Relations); err != nil {
			return err
		}
		if cardfile.Exists(path) {
			return alreadyExistsError(key)
		}

		now := nowUTC()
		card, werr := safewrite.Write(
			func() (Card, error) { return e.createDBAction(key, path, status, in, now) },
			func(c Card) error { return writeCardFile(c) },
			func(c Card) error { return e.createCompensate(c) },
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

	e.publish(models.EventCreated, key)
	return result, nil
}

func validateCreateInput(in CreateInput) error {
	summary := in.Summary
	body := in.Body
	return validate.Validate(validate.Input{
		Summary:   &summary,
		Body:      &body,
		Keywords:  in.Keywords,
		Tags:      in.Tags,
		Relations: toValidateRelations(in.Relations),
		CodeLinks: toValidateCodeLinks(in.CodeLinks),
	})
}

func toValidateRelations(rels []RelationInput) []validate.RelationInput {
	out := make([]validate.RelationInput, 0, len(rels))
	for _, r := range rels {
		out = append(out, validate.RelationInput{Type: r.Type, Target: r.Target})
	}
	return out
}

func toValidateCodeLinks(links []CodeLinkInput) []validate.CodeLinkInput {
	out := make([]validate.CodeLinkInput, 0, len(links))
	for _, l := range links {
		out = append(out, validate.CodeLinkInput{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}
	return out
}

func (e *Engine) createDBAction(key, path string, status models.Status, in CreateInput, now time.Time) (Card, error) {
	tx, err := e.store.Begin()
	if err != nil {
		return Card{}, fmt.Errorf("cardops: begin create transaction: %w", err)
	}
	defer tx.Rollback()

	row := store.CardRow{
		Key:         key,
		Summary:     in.Summary,
		Status:      status,
		Constraints: in.Constraints,
		Body:        in.Body,
		FilePath:    path,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.UpsertCard(tx, row); err != nil {
		return Card{}, err
	}

	relWrites := make([]store.RelationWrite, 0, len(in.Relations))
	for _, r := range in.Relations {
		relWrites = append(relWrites, store.RelationWrite{Type: r.Type, Target: r.Target})
	}
	if err := store.ReplaceRelationsForCard(tx, key, relWrites, e.warnf); err != nil {
		return Card{}, err
	}
	if err := store.ReplaceKeywords(tx, key, in.Keywords); err != nil {
		return Card{}, err
	}
	if err := store.ReplaceTags(tx, key, in.Tags); err != nil {
		return Card{}, err
	}
	links := make([]models.CodeLink, 0, len(in.CodeLinks))
	for _, l := range in.CodeLinks {
		links = append(links, models.CodeLink{CardKey: key, Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}
	if err := store.ReplaceCodeLinksForCard(tx, key, links, e.warnf); err != nil {
		return Card{}, err
	}

	card, err := assembleCard(tx, row)
	if err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, fmt.Errorf("cardops: commit create transaction: %w", err)
	}
	return card, nil
}

// writeCardFile regenerates a card's front matter from its current field
// values and (over)writes its file. Used as the fileAction half of both
// Create's and Update's safe-write.
func writeCardFile(c Card) error {
	doc, err := cardToDocument(c)
	if err != nil {
		return err
	}
	data, err := fmcodec.Serialize(doc)
	if err != nil {
		return err
	}
	return cardfile.Write(c.FilePath, data)
}

func (e *Engine) createCompensate(c Card) error {
	if err := store.DeleteCardByKey(e.store.Conn(), c.Key); err != nil {
		return err
	}
	return nil
}

func (e *Engine) warnf(msg string) {
	e.log.Warn(msg)
}
