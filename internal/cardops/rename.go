package cardops

import (
	"context"
	"fmt"
	"sort"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/store"
)

// Rename moves the card at oldKey to newSlug: the file moves first (an
// atomic rename with its front-matter key rewritten), then one store
// transaction snapshots the old row's forward relations, keywords, tags,
// and code links, deletes the old row (cascading away its mappings), and
// recreates everything under the new key. If the store transaction
// fails, the file move and front-matter rewrite are undone and the
// original error propagates — the reverse order from Create/Update/
// Delete's safe-write, because here the file move is the cheap,
// reversible half and the store transaction is the one that can fail
// outright on constraint violations.
func (e *Engine) Rename(ctx context.Context, oldKey, newSlug string) (*Card, error) {
	normalizedOld, err := cardkey.Normalize(oldKey)
	if err != nil {
		return nil, err
	}
	normalizedNew, err := cardkey.Normalize(newSlug)
	if err != nil {
		return nil, err
	}
	oldPath := cardkey.BuildPath(e.cardsDir, normalizedOld)
	newPath := cardkey.BuildPath(e.cardsDir, normalizedNew)

	if normalizedOld == normalizedNew {
		return nil, fmt.Errorf("%w: %q", cardapi.ErrCardRenameSamePath, normalizedOld)
	}

	sorted := []string{normalizedOld, normalizedNew}
	sort.Strings(sorted)
	unlock, err := e.locks.LockMany(ctx, sorted)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *Card
	err = retry.Do(ctx, e.retryOpts, func() error {
		if !cardfile.Exists(oldPath) {
			return notFoundError(normalizedOld)
		}
		if cardfile.Exists(newPath) {
			return alreadyExistsError(normalizedNew)
		}

		orig, rerr := cardfile.Read(oldPath)
		if rerr != nil {
			return rerr
		}

		if merr := cardfile.Move(oldPath, newPath); merr != nil {
			return merr
		}
		if rwerr := rewriteFrontMatterKey(newPath, normalizedNew); rwerr != nil {
			undoMove(newPath, oldPath, orig.Data)
			return rwerr
		}

		card, derr := e.renameDBAction(normalizedOld, normalizedNew, newPath)
		if derr != nil {
			undoMove(newPath, oldPath, orig.Data)
			return derr
		}
		result = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cards whose forward relations were re-pointed at the new key in the
	// store get their files regenerated as well, so their front matter names
	// the new key and a later sync from those files keeps the edge.
	if rels, ferr := store.FindRelationsByCardKey(e.store.Conn(), normalizedNew); ferr == nil {
		for _, r := range rels {
			if !r.IsReverse {
				continue
			}
			if _, xerr := e.ExportCardToFile(ctx, r.DstKey); xerr != nil {
				e.warnf(fmt.Sprintf("cardops: rename: rewrite file of %q: %v", r.DstKey, xerr))
			}
		}
	}

	e.publish(models.EventRenamed, normalizedNew)
	return result, nil
}

// rewriteFrontMatterKey reparses the file now sitting at path and rewrites
// its front-matter "key" to newKey, leaving every other field untouched.
func rewriteFrontMatterKey(path, newKey string) error {
	f, err := cardfile.Read(path)
	if err != nil {
		return err
	}
	doc, err := fmcodec.Parse(f.Data)
	if err != nil {
		return err
	}
	doc.Key = newKey
	data, err := fmcodec.Serialize(doc)
	if err != nil {
		return err
	}
	return cardfile.Write(path, data)
}

// undoMove best-effort restores the pre-rename file: move it back to
// oldPath and overwrite it with the original bytes, discarding the
// rewritten key. Errors are discarded, not propagated — the caller is
// already returning the triggering error.
func undoMove(from, to string, originalData []byte) {
	_ = cardfile.Move(from, to)
	_ = cardfile.Write(to, originalData)
}

func (e *Engine) renameDBAction(oldKey, newKey, newPath string) (*Card, error) {
	tx, err := e.store.Begin()
	if err != nil {
		return nil, fmt.Errorf("cardops: begin rename transaction: %w", err)
	}
	defer tx.Rollback()

	oldRow, err := store.FindCardByKey(tx, oldKey)
	if err != nil {
		return nil, err
	}
	if oldRow == nil {
		return nil, notFoundError(oldKey)
	}

	rels, err := store.FindRelationsByCardKey(tx, oldKey)
	if err != nil {
		return nil, err
	}
	keywords, err := store.FindKeywordsByCard(tx, oldKey)
	if err != nil {
		return nil, err
	}
	tags, err := store.FindTagsByCard(tx, oldKey)
	if err != nil {
		return nil, err
	}
	links, err := store.FindCodeLinksByCardKey(tx, oldKey)
	if err != nil {
		return nil, err
	}

	// Deleting oldKey cascades away every card_relation row that touches
	// it, including forward edges owned by OTHER cards (recorded here as
	// oldKey's own is_reverse mirror rows). Snapshot each such owner's full
	// relation set now, with oldKey substituted for newKey, so it can be
	// restored after the new row exists — otherwise those cards silently
	// lose their relation to the renamed card.
	incomingOwners := map[string]bool{}
	for _, r := range rels {
		if r.IsReverse {
			incomingOwners[r.DstKey] = true
		}
	}
	incomingRewrites := make(map[string][]store.RelationWrite, len(incomingOwners))
	for owner := range incomingOwners {
		ownerRels, err := store.FindRelationsByCardKey(tx, owner)
		if err != nil {
			return nil, err
		}
		writes := make([]store.RelationWrite, 0, len(ownerRels))
		for _, r := range ownerRels {
			if r.IsReverse {
				continue
			}
			target := r.DstKey
			if target == oldKey {
				target = newKey
			}
			writes = append(writes, store.RelationWrite{Type: r.Type, Target: target})
		}
		incomingRewrites[owner] = writes
	}

	if err := store.DeleteCardByKey(tx, oldKey); err != nil {
		return nil, err
	}

	newRow := store.CardRow{
		Key:         newKey,
		Summary:     oldRow.Summary,
		Status:      oldRow.Status,
		Constraints: oldRow.Constraints,
		Body:        oldRow.Body,
		FilePath:    newPath,
		CreatedAt:   oldRow.CreatedAt,
		UpdatedAt:   nowUTC(),
	}
	if err := store.UpsertCard(tx, newRow); err != nil {
		return nil, err
	}

	var relWrites []store.RelationWrite
	for _, r := range rels {
		if !r.IsReverse {
			relWrites = append(relWrites, store.RelationWrite{Type: r.Type, Target: r.DstKey})
		}
	}
	if err := store.ReplaceRelationsForCard(tx, newKey, relWrites, e.warnf); err != nil {
		return nil, err
	}
	for owner, writes := range incomingRewrites {
		if err := store.ReplaceRelationsForCard(tx, owner, writes, e.warnf); err != nil {
			return nil, err
		}
	}
	if err := store.ReplaceKeywords(tx, newKey, keywords); err != nil {
		return nil, err
	}
	if err := store.ReplaceTags(tx, newKey, tags); err != nil {
		return nil, err
	}
	newLinks := make([]models.CodeLink, 0, len(links))
	for _, l := range links {
		newLinks = append(newLinks, models.CodeLink{CardKey: newKey, Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}
	if err := store.ReplaceCodeLinksForCard(tx, newKey, newLinks, e.warnf); err != nil {
		return nil, err
	}

	card, err := assembleCard(tx, newRow)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cardops: commit rename transaction: %w", err)
	}
	return &card, nil
}
