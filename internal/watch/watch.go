// Package watch is an optional fsnotify-driven live resync of the cards
// directory. It is strictly an external trigger into cardops' own locked,
// retried entry points: it never touches the store directly, so it cannot
// bypass the consistency engine's invariants.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/checksum"
)

const cardSuffix = ".card.md"

// EventCallback is called after a watcher-driven sync/remove. kind is one
// of "synced", "deleted".
type EventCallback func(kind, path string)

// watcher holds the loop's mutable state: a checksum cache lets the
// reconciliation pass skip re-syncing files whose content hasn't actually
// changed since the last scan, which matters because reconciliation
// re-walks the whole tree on every rename instead of a single path.
type watcher struct {
	eng      *cardops.Engine
	cardsDir string
	logger   *slog.Logger
	cb       EventCallback
	sums     map[string]string
}

// Watch starts an fsnotify watcher on cardsDir and routes every *.card.md
// change through eng.SyncCardFromFile/eng.RemoveCardByFile until ctx is
// cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that re-syncs any
// *.card.md file whose content hash has changed since the last pass.
func Watch(ctx context.Context, eng *cardops.Engine, cardsDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, cardsDir); err != nil {
		return err
	}

	wt := &watcher{eng: eng, cardsDir: cardsDir, logger: logger, cb: cb, sums: make(map[string]string)}
	wt.primeChecksums()

	logger.Info("watcher: started", slog.String("root", cardsDir))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			wt.reconcile(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath), slog.String("error", addErr.Error()))
					}
					wt.indexNewDir(ctx, absPath)
					continue
				}
			}

			if !strings.HasSuffix(absPath, cardSuffix) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				wt.syncChanged(ctx, absPath)

			case ev.Op&fsnotify.Remove != 0:
				if err := eng.RemoveCardByFile(ctx, absPath); err != nil {
					logger.Warn("watcher: remove failed", slog.String("path", absPath), slog.String("error", err.Error()))
					continue
				}
				delete(wt.sums, absPath)
				logger.Debug("watcher: removed", slog.String("path", absPath))
				if cb != nil {
					cb("deleted", absPath)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create event if it lands in a
				// watched dir. Remove the old row now and let the
				// reconciliation pass catch anything the Create event missed.
				if err := eng.RemoveCardByFile(ctx, absPath); err != nil {
					logger.Warn("watcher: rename remove failed", slog.String("path", absPath), slog.String("error", err.Error()))
				} else if cb != nil {
					cb("deleted", absPath)
				}
				delete(wt.sums, absPath)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// primeChecksums seeds the checksum cache from the current tree so the
// first reconciliation pass only re-syncs files that change afterward.
func (wt *watcher) primeChecksums() {
	paths, err := cardfile.ScanDir(wt.cardsDir)
	if err != nil {
		return
	}
	for _, p := range paths {
		if f, err := cardfile.Read(p); err == nil {
			wt.sums[p] = checksum.Sum(f.Data)
		}
	}
}

// syncChanged syncs path only if its content hash differs from the last
// observed value, then updates the cache.
func (wt *watcher) syncChanged(ctx context.Context, path string) {
	f, err := cardfile.Read(path)
	if err != nil {
		wt.logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	sum := checksum.Sum(f.Data)
	if wt.sums[path] == sum {
		return
	}
	if _, err := wt.eng.SyncCardFromFile(ctx, path); err != nil {
		wt.logger.Warn("watcher: sync failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	wt.sums[path] = sum
	wt.logger.Debug("watcher: synced", slog.String("path", path))
	if wt.cb != nil {
		wt.cb("synced", path)
	}
}

// reconcile re-scans cardsDir and syncs every *.card.md file whose content
// hash has changed since the last observation, which is idempotent and
// catches anything a bare Rename event missed. It does not detect
// deletions itself — those are handled synchronously by the Remove branch
// above, and a dangling row pointing at a file that no longer exists is
// surfaced by cardops.Validate rather than silently pruned here.
func (wt *watcher) reconcile(ctx context.Context) {
	paths, err := cardfile.ScanDir(wt.cardsDir)
	if err != nil {
		wt.logger.Warn("reconcile: scan failed", slog.String("error", err.Error()))
		return
	}
	synced := 0
	for _, p := range paths {
		before := wt.sums[p]
		wt.syncChanged(ctx, p)
		if wt.sums[p] != before {
			synced++
		}
	}
	if synced > 0 {
		wt.logger.Debug("reconcile: synced changed files", slog.Int("count", synced))
	}
}

// indexNewDir syncs any *.card.md files found in a newly created directory.
func (wt *watcher) indexNewDir(ctx context.Context, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, cardSuffix) {
			return nil
		}
		wt.syncChanged(ctx, path)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
