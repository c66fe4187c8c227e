package cardops

import (
	"context"
	"fmt"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/fmcodec"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

// SyncCardFromFile reads path, upserts its row, and replaces all four
// auxiliary sets to match the file exactly. Repeated calls are
// idempotent. Per the open question in spec.md §9, a front-matter key
// that disagrees with the filename-derived key is NOT rejected here —
// Validate is the sole place that surfaces that disagreement.
func (e *Engine) SyncCardFromFile(ctx context.Context, path string) (*Card, error) {
	key, err := deriveKeyFromFile(path)
	if err != nil {
		return nil, err
	}
	unlock, err := e.locks.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	card, err := e.syncFromFile(path)
	if err != nil {
		return nil, err
	}
	e.publish(models.EventSynced, card.Key)
	return card, nil
}

// deriveKeyFromFile peeks at a card file's front matter to learn the key
// it would sync under, without acquiring any lock.
func deriveKeyFromFile(path string) (string, error) {
	f, err := cardfile.Read(path)
	if err != nil {
		return "", err
	}
	doc, err := fmcodec.Parse(f.Data)
	if err != nil {
		return "", err
	}
	return doc.Key, nil
}

// syncFromFile is the lock-free core used both by the public
// SyncCardFromFile and as the compensating action inside update/delete/
// rename (contexts that already hold the key's lock).
func (e *Engine) syncFromFile(path string) (*Card, error) {
	f, err := cardfile.Read(path)
	if err != nil {
		return nil, err
	}
	doc, err := fmcodec.Parse(f.Data)
	if err != nil {
		return nil, err
	}
	key, err := cardkey.ParseFullKey(doc.Key)
	if err != nil {
		return nil, err
	}

	constraints, err := constraintsToJSON(doc.Constraints)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, fmt.Errorf("cardops: begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.FindCardByKey(tx, key)
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	row := store.CardRow{
		Key:         key,
		Summary:     doc.Summary,
		Status:      doc.Status,
		Constraints: constraints,
		Body:        doc.Body,
		FilePath:    path,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	if err := store.UpsertCard(tx, row); err != nil {
		return nil, err
	}
	if err := store.ReplaceRelationsForCard(tx, key, documentRelationWrites(doc), e.warnf); err != nil {
		return nil, err
	}
	if err := store.ReplaceKeywords(tx, key, doc.Keywords); err != nil {
		return nil, err
	}
	if err := store.ReplaceTags(tx, key, doc.Tags); err != nil {
		return nil, err
	}
	if err := store.ReplaceCodeLinksForCard(tx, key, documentCodeLinks(doc, key), e.warnf); err != nil {
		return nil, err
	}

	card, err := assembleCard(tx, row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cardops: commit sync transaction: %w", err)
	}
	return &card, nil
}

// RemoveCardByFile looks up the row owning path and deletes it (cascading
// to relations/mappings/code links). A path with no owning row is a
// no-op.
func (e *Engine) RemoveCardByFile(ctx context.Context, path string) error {
	row, err := store.FindCardByFilePath(e.store.Conn(), path)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	unlock, err := e.locks.Lock(ctx, row.Key)
	if err != nil {
		return err
	}
	defer unlock()

	// Re-check under the lock: another operation may have already removed
	// or replaced this row between the lookup above and acquiring it.
	row, err = store.FindCardByFilePath(e.store.Conn(), path)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	if err := store.DeleteCardByKey(e.store.Conn(), row.Key); err != nil {
		return err
	}
	e.publish(models.EventDeleted, row.Key)
	return nil
}

// BulkSync scans dir (or the configured cards directory if dir is empty)
// for *.card.md files and attempts SyncCardFromFile on each, accumulating
// per-file failures without aborting the scan. A missing directory
// propagates as an error.
func (e *Engine) BulkSync(ctx context.Context, dir string) (*BulkSyncResult, error) {
	scanDir := dir
	if scanDir == "" {
		scanDir = e.cardsDir
	}
	paths, err := cardfile.ScanDir(scanDir)
	if err != nil {
		return nil, err
	}

	result := &BulkSyncResult{}
	for _, p := range paths {
		if _, err := e.SyncCardFromFile(ctx, p); err != nil {
			result.Failures = append(result.Failures, SyncFailure{FilePath: p, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
