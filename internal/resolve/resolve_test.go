package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/registry"
)

const lookupFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.04104v1</id>
    <title>Scaling Transformers</title>
    <summary>A study of scaling.</summary>
    <published>2023-05-01T12:00:00Z</published>
    <updated>2023-05-02T12:00:00Z</updated>
    <author><name>Doe, Jane</name></author>
    <category term="cs.LG"/>
    <link rel="alternate" type="text/html" href="http://arxiv.org/abs/2301.04104v1"/>
  </entry>
</feed>`

func newTestStore(t *testing.T) *registry.Store {
	t.Helper()
	store, err := registry.Open(filepath.Join(t.TempDir(), "registry.sqlite3"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return store
}

// newTestResolver points a fresh client at srv. Each client allows one
// immediate request; tests needing more construct another resolver.
func newTestResolver(store *registry.Store, srv *httptest.Server) *Resolver {
	client := arxiv.NewClient(
		arxiv.WithBaseURL(srv.URL+"/api/query"),
		arxiv.WithBibTeXBaseURL(srv.URL+"/bibtex"),
	)
	return &Resolver{Store: store, Client: client}
}

func TestEnsureWork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(lookupFeed))
	}))
	defer srv.Close()

	store := newTestStore(t)
	r := newTestResolver(store, srv)

	workID, err := r.EnsureWork(context.Background(), "2301.04104")
	if err != nil {
		t.Fatalf("EnsureWork() error = %v", err)
	}

	rec, err := store.Work(workID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "Scaling Transformers" {
		t.Errorf("Title = %q", rec.Title)
	}

	// Known ID: resolved from the registry, no remote call.
	again, err := r.EnsureWork(context.Background(), "2301.04104")
	if err != nil {
		t.Fatalf("second EnsureWork() error = %v", err)
	}
	if again != workID {
		t.Errorf("work ids differ: %d vs %d", again, workID)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	st, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Works != 1 {
		t.Errorf("works = %d, want 1", st.Works)
	}
}

func TestEnsureWork_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	store := newTestStore(t)
	r := newTestResolver(store, srv)

	_, err := r.EnsureWork(context.Background(), "2301.04104")
	if !errors.Is(err, arxiv.ErrEmptyResponse) {
		t.Errorf("EnsureWork() = %v, want ErrEmptyResponse", err)
	}
}

func TestEnsureWork_NoEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	store := newTestStore(t)
	r := newTestResolver(store, srv)

	_, err := r.EnsureWork(context.Background(), "2301.04104")
	if !errors.Is(err, ErrNoMetadata) {
		t.Errorf("EnsureWork() = %v, want ErrNoMetadata", err)
	}
}

func TestEnsureBibTeX(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("@misc{arxiv2301,\n  title={Scaling Transformers}\n}\n"))
	}))
	defer srv.Close()

	store := newTestStore(t)
	workID, err := store.UpsertWork(arxiv.Entry{
		ArxivID: "2301.04104",
		Title:   "Scaling Transformers",
		Authors: []string{"Doe, Jane"},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := newTestResolver(store, srv)
	text, err := r.EnsureBibTeX(context.Background(), "2301.04104", workID, false)
	if err != nil {
		t.Fatalf("EnsureBibTeX() error = %v", err)
	}
	if text != "@misc{arxiv2301,\n  title={Scaling Transformers}\n}\n" {
		t.Errorf("text = %q", text)
	}

	// Cached: no second fetch.
	if _, err := r.EnsureBibTeX(context.Background(), "2301.04104", workID, false); err != nil {
		t.Fatalf("second EnsureBibTeX() error = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	// Refresh bypasses the cache.
	if _, err := newTestResolver(store, srv).EnsureBibTeX(context.Background(), "2301.04104", workID, true); err != nil {
		t.Fatalf("refresh EnsureBibTeX() error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits after refresh = %d, want 2", got)
	}
}
