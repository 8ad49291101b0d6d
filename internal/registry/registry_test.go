package registry

import (
	"path/filepath"
	"testing"

	"github.com/matsen/arxreg/internal/arxiv"
)

// newTestStore opens an initialized registry in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "registry.sqlite3"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return store
}

// testEntry builds a minimal parsed entry for upsert tests.
func testEntry(arxivID string) arxiv.Entry {
	return arxiv.Entry{
		ArxivID:          arxivID,
		ArxivIDVersioned: arxivID + "v1",
		Title:            "Scaling Transformers",
		Summary:          "A study of scaling.",
		Published:        "2023-05-01T12:00:00Z",
		Updated:          "2023-05-02T12:00:00Z",
		PrimaryCategory:  "cs.LG",
		Categories:       []string{"cs.LG", "stat.ML"},
		AbsURL:           "http://arxiv.org/abs/" + arxivID + "v1",
		PDFURL:           "http://arxiv.org/pdf/" + arxivID + "v1",
		Authors:          []string{"Doe, Jane", "Roe, Richard"},
	}
}

func TestInit_Idempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if err := store.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}
}

func TestEnsureInitialized_MissingSchema(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "registry.sqlite3"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.EnsureInitialized(); err != ErrNotInitialized {
		t.Errorf("EnsureInitialized() = %v, want ErrNotInitialized", err)
	}
}

func TestUpsertWork_Twice(t *testing.T) {
	store := newTestStore(t)

	first := testEntry("2301.04104")
	first.DOI = "10.1234/abc"
	first.Comment = "14 pages"

	id1, err := store.UpsertWork(first)
	if err != nil {
		t.Fatalf("UpsertWork() error = %v", err)
	}

	// Second sighting: updated title, reordered authors, lost DOI and comment.
	second := testEntry("2301.04104")
	second.Title = "Scaling Transformers v2"
	second.Authors = []string{"Roe, Richard", "Doe, Jane", "New, Nancy"}

	id2, err := store.UpsertWork(second)
	if err != nil {
		t.Fatalf("second UpsertWork() error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("work ids differ: %d vs %d", id1, id2)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(1) FROM works`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("works count = %d, want 1", count)
	}

	rec, err := store.Work(id1)
	if err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if rec.Title != "Scaling Transformers v2" {
		t.Errorf("Title = %q, want last write", rec.Title)
	}
	if rec.DOI != "10.1234/abc" {
		t.Errorf("DOI = %q, previously stored DOI must never be nulled", rec.DOI)
	}
	if rec.Comment != "14 pages" {
		t.Errorf("Comment = %q, non-null comment must be kept", rec.Comment)
	}
	want := []string{"Roe, Richard", "Doe, Jane", "New, Nancy"}
	if len(rec.Authors) != len(want) {
		t.Fatalf("Authors = %v, want %v", rec.Authors, want)
	}
	for i := range want {
		if rec.Authors[i] != want[i] {
			t.Errorf("Authors[%d] = %q, want %q (latest order is authoritative)", i, rec.Authors[i], want[i])
		}
	}
}

func TestUpsertWork_DedupesAuthors(t *testing.T) {
	store := newTestStore(t)

	e := testEntry("2301.04104")
	e.Authors = []string{"Doe, Jane", "Doe, Jane", "Roe, Richard"}
	id, err := store.UpsertWork(e)
	if err != nil {
		t.Fatalf("UpsertWork() error = %v", err)
	}

	rec, err := store.Work(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Authors) != 2 {
		t.Errorf("Authors = %v, want repeated name collapsed with dense positions", rec.Authors)
	}

	// Authors are registry-wide: one row per distinct name.
	var count int
	if err := store.db.QueryRow(`SELECT COUNT(1) FROM authors`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("authors count = %d, want 2", count)
	}
}

func TestUpsertWork_DOIConflictRecovered(t *testing.T) {
	store := newTestStore(t)

	a := testEntry("2301.04104")
	a.DOI = "10.1234/shared"
	if _, err := store.UpsertWork(a); err != nil {
		t.Fatalf("UpsertWork(a) error = %v", err)
	}

	// Upstream metadata error: a different work claims the same DOI.
	b := testEntry("2302.99999")
	b.DOI = "10.1234/shared"
	idB, err := store.UpsertWork(b)
	if err != nil {
		t.Fatalf("UpsertWork(b) error = %v, want conflict recovered locally", err)
	}

	rec, err := store.Work(idB)
	if err != nil {
		t.Fatal(err)
	}
	if rec.DOI != "" {
		t.Errorf("conflicting DOI = %q, want dropped", rec.DOI)
	}
}

func TestEnsureCitationKey_Idempotent(t *testing.T) {
	store := newTestStore(t)

	id, err := store.UpsertWork(testEntry("2301.04104"))
	if err != nil {
		t.Fatal(err)
	}

	key, err := store.EnsureCitationKey(id)
	if err != nil {
		t.Fatalf("EnsureCitationKey() error = %v", err)
	}
	if key != "doe2023scaling" {
		t.Errorf("key = %q, want doe2023scaling", key)
	}

	// Mark the row; a second call must not rewrite it.
	if _, err := store.db.Exec(
		`UPDATE citation_keys SET generated_at = 'sentinel' WHERE work_id = ?`, id,
	); err != nil {
		t.Fatal(err)
	}

	again, err := store.EnsureCitationKey(id)
	if err != nil {
		t.Fatalf("second EnsureCitationKey() error = %v", err)
	}
	if again != key {
		t.Errorf("second key = %q, want %q", again, key)
	}

	var generatedAt string
	if err := store.db.QueryRow(
		`SELECT generated_at FROM citation_keys WHERE work_id = ?`, id,
	).Scan(&generatedAt); err != nil {
		t.Fatal(err)
	}
	if generatedAt != "sentinel" {
		t.Errorf("generated_at = %q, second call must perform no write", generatedAt)
	}
}

func TestEnsureCitationKey_Collision(t *testing.T) {
	store := newTestStore(t)

	idA, err := store.UpsertWork(testEntry("2301.04104"))
	if err != nil {
		t.Fatal(err)
	}
	idB, err := store.UpsertWork(testEntry("2302.99999")) // same author/year/title
	if err != nil {
		t.Fatal(err)
	}

	keyA, err := store.EnsureCitationKey(idA)
	if err != nil {
		t.Fatal(err)
	}
	keyB, err := store.EnsureCitationKey(idB)
	if err != nil {
		t.Fatal(err)
	}

	if keyA != "doe2023scaling" {
		t.Errorf("keyA = %q, want bare base (first writer wins)", keyA)
	}
	if keyB != "doe2023scaling299999" {
		t.Errorf("keyB = %q, want base + last six ID digits", keyB)
	}
	if keyA == keyB {
		t.Errorf("colliding works share key %q", keyA)
	}

	// Keys are write-once: re-asking reproduces the same assignment.
	againA, _ := store.EnsureCitationKey(idA)
	againB, _ := store.EnsureCitationKey(idB)
	if againA != keyA || againB != keyB {
		t.Errorf("reassignment changed keys: %q/%q vs %q/%q", againA, againB, keyA, keyB)
	}
}

func TestEnsureCitationKey_MissingWork(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.EnsureCitationKey(99); err != ErrWorkNotFound {
		t.Errorf("EnsureCitationKey(99) = %v, want ErrWorkNotFound", err)
	}
}
