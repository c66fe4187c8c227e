package cardops

import (
	"context"
	"fmt"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardkey"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/safewrite"
	"github.com/cardengine/cardengine/internal/store"
)

// Delete removes the card at key: the row first (cascading to its
// relations, classification mappings, and code links), then the file. If
// the file delete fails, the compensator re-syncs the DB from the file,
// which is still present.
func (e *Engine) Delete(ctx context.Context, key string) error {
	normalized, err := cardkey.Normalize(key)
	if err != nil {
		return err
	}
	path := cardkey.BuildPath(e.cardsDir, normalized)

	unlock, err := e.locks.Lock(ctx, normalized)
	if err != nil {
		return err
	}
	defer unlock()

	err = retry.Do(ctx, e.retryOpts, func() error {
		if !cardfile.Exists(path) {
			return notFoundError(normalized)
		}

		_, werr := safewrite.Write(
			func() (struct{}, error) { return struct{}{}, e.deleteDBAction(normalized) },
			func(struct{}) error { return cardfile.Delete(path) },
			func(struct{}) error { _, serr := e.syncFromFile(path); return serr },
		)
		return werr
	})
	if err != nil {
		return err
	}

	e.publish(models.EventDeleted, normalized)
	return nil
}

func (e *Engine) deleteDBAction(key string) error {
	tx, err := e.store.Begin()
	if err != nil {
		return fmt.Errorf("cardops: begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := store.DeleteCardByKey(tx, key); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cardops: commit delete transaction: %w", err)
	}
	return nil
}
