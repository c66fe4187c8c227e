package store_test

import (
	"os"
	"testing"
	"time"

	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	f, err := os.CreateTemp("", "cardengine-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	st, err := store.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func baseCardRow(key string) store.CardRow {
	now := time.Now().UTC().Truncate(time.Second)
	return store.CardRow{
		Key:       key,
		Summary:   "a card",
		Status:    models.StatusDraft,
		Body:      "body text",
		FilePath:  key + ".card.md",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUpsertCard_InsertAndUpdate(t *testing.T) {
	st := testStore(t)

	row := baseCardRow("area/widget")
	if err := store.UpsertCard(st.Conn(), row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.FindCardByKey(st.Conn(), "area/widget")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.Summary != "a card" {
		t.Fatalf("got = %+v", got)
	}

	row.Summary = "an updated card"
	if err := store.UpsertCard(st.Conn(), row); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = store.FindCardByKey(st.Conn(), "area/widget")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.Summary != "an updated card" {
		t.Errorf("summary = %q, want %q", got.Summary, "an updated card")
	}

	count, err := countRows(st, "card")
	if err != nil {
		t.Fatalf("count card: %v", err)
	}
	if count != 1 {
		t.Errorf("card rows = %d, want 1 (upsert should replace, not duplicate)", count)
	}
}

func TestReplaceRelationsForCard_InsertsMirrorRow(t *testing.T) {
	st := testStore(t)
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/a")); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/b")); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	rels := []store.RelationWrite{{Type: "depends_on", Target: "area/b"}}
	if err := store.ReplaceRelationsForCard(st.Conn(), "area/a", rels, nil); err != nil {
		t.Fatalf("replace relations: %v", err)
	}

	forward, err := store.FindRelationsByCardKey(st.Conn(), "area/a")
	if err != nil {
		t.Fatalf("find forward: %v", err)
	}
	if len(forward) != 1 || forward[0].IsReverse || forward[0].DstKey != "area/b" {
		t.Fatalf("forward relations = %+v", forward)
	}

	mirror, err := store.FindRelationsByCardKey(st.Conn(), "area/b")
	if err != nil {
		t.Fatalf("find mirror: %v", err)
	}
	if len(mirror) != 1 || !mirror[0].IsReverse || mirror[0].DstKey != "area/a" {
		t.Fatalf("mirror relations = %+v", mirror)
	}
}

func TestReplaceRelationsForCard_SelfReferenceCollides(t *testing.T) {
	st := testStore(t)
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/a")); err != nil {
		t.Fatalf("insert a: %v", err)
	}

	rels := []store.RelationWrite{{Type: "depends_on", Target: "area/a"}}
	err := store.ReplaceRelationsForCard(st.Conn(), "area/a", rels, nil)
	if err == nil {
		t.Fatal("expected the forward/mirror pair to collide on the (type, src, dst) unique index, got nil")
	}
}

func TestReplaceRelationsForCard_ForeignKeyViolationSkipped(t *testing.T) {
	st := testStore(t)
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/a")); err != nil {
		t.Fatalf("insert a: %v", err)
	}

	var warned string
	rels := []store.RelationWrite{{Type: "depends_on", Target: "area/missing"}}
	if err := store.ReplaceRelationsForCard(st.Conn(), "area/a", rels, func(msg string) { warned = msg }); err != nil {
		t.Fatalf("replace relations: %v", err)
	}
	if warned == "" {
		t.Error("expected a warning for the missing target card")
	}

	forward, err := store.FindRelationsByCardKey(st.Conn(), "area/a")
	if err != nil {
		t.Fatalf("find forward: %v", err)
	}
	if len(forward) != 0 {
		t.Errorf("expected the skipped relation not to be recorded, got %+v", forward)
	}
}

func TestFindCodeLinksBySymbol(t *testing.T) {
	st := testStore(t)
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/a")); err != nil {
		t.Fatalf("insert a: %v", err)
	}

	links := []models.CodeLink{
		{CardKey: "area/a", Kind: "function", File: "pkg/foo.go", Symbol: "DoThing"},
		{CardKey: "area/a", Kind: "function", File: "pkg/bar.go", Symbol: "DoThing"},
	}
	if err := store.ReplaceCodeLinksForCard(st.Conn(), "area/a", links, nil); err != nil {
		t.Fatalf("replace code links: %v", err)
	}

	all, err := store.FindCodeLinksBySymbol(st.Conn(), "DoThing", nil)
	if err != nil {
		t.Fatalf("find by symbol: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 links for DoThing, got %d", len(all))
	}

	file := "pkg/foo.go"
	narrowed, err := store.FindCodeLinksBySymbol(st.Conn(), "DoThing", &file)
	if err != nil {
		t.Fatalf("find by symbol+file: %v", err)
	}
	if len(narrowed) != 1 || narrowed[0].File != "pkg/foo.go" {
		t.Fatalf("narrowed links = %+v", narrowed)
	}
}

func TestPruneOrphanClassifications(t *testing.T) {
	st := testStore(t)
	if err := store.UpsertCard(st.Conn(), baseCardRow("area/a")); err != nil {
		t.Fatalf("insert a: %v", err)
	}

	if err := store.ReplaceKeywords(st.Conn(), "area/a", []string{"alpha", "beta"}); err != nil {
		t.Fatalf("replace keywords: %v", err)
	}
	// Dropping "beta" from the card's mapping leaves its keyword row orphaned.
	if err := store.ReplaceKeywords(st.Conn(), "area/a", []string{"alpha"}); err != nil {
		t.Fatalf("replace keywords again: %v", err)
	}

	count, err := countRows(st, "keyword")
	if err != nil {
		t.Fatalf("count keyword: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected beta's orphaned row still present before prune, got %d rows", count)
	}

	if err := store.PruneOrphanClassifications(st.Conn()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	names, err := store.FindKeywordsByCard(st.Conn(), "area/a")
	if err != nil {
		t.Fatalf("find keywords: %v", err)
	}
	if len(names) != 1 || names[0] != "alpha" {
		t.Fatalf("keywords after prune = %v", names)
	}

	count, err = countRows(st, "keyword")
	if err != nil {
		t.Fatalf("count keyword after prune: %v", err)
	}
	if count != 1 {
		t.Errorf("expected orphaned beta row pruned, %d keyword rows remain", count)
	}
}

func countRows(st *store.Store, table string) (int, error) {
	var n int
	err := st.Conn().QueryRow(`SELECT count(*) FROM ` + table).Scan(&n)
	return n, err
}
