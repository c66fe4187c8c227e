// Package testutil provides shared test helpers for setting up cards
// directories, stores, and engines.
package testutil

import (
	"os"
	"testing"

	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/keylock"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/store"
)

// TestStore creates a temporary SQLite-backed store that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cardengine-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestCardsDir creates a temporary cards directory.
func TestCardsDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// TestEngine builds a cardops.Engine wired to a temporary store and cards
// directory, suitable for exercising any operation end to end.
func TestEngine(t *testing.T) (*cardops.Engine, string) {
	t.Helper()
	st := TestStore(t)
	cardsDir := TestCardsDir(t)
	eng := cardops.New(cardops.Config{
		Store:    st,
		CardsDir: cardsDir,
		Locks:    keylock.New(),
		Retry:    retry.Options{MaxRetries: 1},
	})
	return eng, cardsDir
}
