package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func writeCard(t *testing.T, path, key, summary string) {
	t.Helper()
	content := "---\nkey: " + key + "\nsummary: " + summary + "\nstatus: draft\n---\n\nBody.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatch_NewFileSynced(t *testing.T) {
	eng, cardsDir := testutil.TestEngine(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, eng, cardsDir, logger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(cardsDir, "new.card.md")
	writeCard(t, path, "new", "A new card")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := eng.Read(ctx, "new")
		return err == nil
	}, "new card not synced by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "synced:"+path {
				return true
			}
		}
		return false
	}, "expected synced callback for new file")
}

func TestWatch_NewDirWatched(t *testing.T) {
	eng, cardsDir := testutil.TestEngine(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, eng, cardsDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(cardsDir, "area")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	writeCard(t, filepath.Join(subDir, "deep.card.md"), "area/deep", "A nested card")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := eng.Read(ctx, "area/deep")
		return err == nil
	}, "card in new subdir not synced by watcher")
}

func TestWatch_DeleteRemoves(t *testing.T) {
	eng, cardsDir := testutil.TestEngine(t)
	logger := quietLogger()

	path := filepath.Join(cardsDir, "del.card.md")
	writeCard(t, path, "del", "Delete me")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := eng.SyncCardFromFile(ctx, path); err != nil {
		t.Fatalf("precondition sync failed: %v", err)
	}

	go Watch(ctx, eng, cardsDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := eng.Read(ctx, "del")
		return errors.Is(err, cardapi.ErrCardNotFound)
	}, "deleted card still readable after watcher remove")
}

func TestWatch_RewriteUnderNewNameAndRemoveOld(t *testing.T) {
	eng, cardsDir := testutil.TestEngine(t)
	logger := quietLogger()

	oldPath := filepath.Join(cardsDir, "old.card.md")
	newPath := filepath.Join(cardsDir, "renamed.card.md")
	writeCard(t, oldPath, "old", "Before rename")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := eng.SyncCardFromFile(ctx, oldPath); err != nil {
		t.Fatalf("precondition sync failed: %v", err)
	}

	go Watch(ctx, eng, cardsDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	// Rewrite under the new name with an updated key, then remove the old
	// file: the Create/Write events sync the new row and the Remove event
	// drops the old one.
	writeCard(t, newPath, "renamed", "After rename")
	if err := os.Remove(oldPath); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, oldErr := eng.Read(ctx, "old")
		_, newErr := eng.Read(ctx, "renamed")
		return errors.Is(oldErr, cardapi.ErrCardNotFound) && newErr == nil
	}, "old key should be gone and new key synced")
}
