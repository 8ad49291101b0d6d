// Package resolve turns arXiv identifiers into registry rows, fetching
// metadata and BibTeX from the API only when the registry does not already
// have them.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/registry"
)

// Errors returned by the resolver.
var (
	// ErrNoMetadata indicates arXiv returned nothing usable for an ID.
	ErrNoMetadata = errors.New("no metadata available")

	// ErrNoBibTeX indicates the BibTeX endpoint returned an empty body.
	ErrNoBibTeX = errors.New("no BibTeX available")
)

// Resolver resolves identifiers against a registry store, falling back to
// the arXiv API on misses. Every remote attempt is recorded in the fetch log.
type Resolver struct {
	Store  *registry.Store
	Client *arxiv.Client
}

// EnsureWork resolves a base arXiv ID to its work identity, fetching and
// upserting metadata from the API when the registry has never seen it.
func (r *Resolver) EnsureWork(ctx context.Context, arxivID string) (int64, error) {
	workID, ok, err := r.Store.FindWork(arxivID)
	if err != nil {
		return 0, err
	}
	if ok {
		return workID, nil
	}

	resp, err := r.Client.Lookup(ctx, arxivID)
	if err != nil {
		return 0, fmt.Errorf("fetching metadata for %s: %w", arxivID, err)
	}
	if logErr := r.Store.LogFetch(registry.FetchKindIDList, resp.URL, resp.Status, resp.Body); logErr != nil {
		return 0, logErr
	}
	if len(resp.Body) == 0 {
		return 0, fmt.Errorf("%w (status=%d) for %s", arxiv.ErrEmptyResponse, resp.Status, arxivID)
	}

	_, entries, err := arxiv.ParseFeed(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parsing metadata for %s: %w", arxivID, err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoMetadata, arxivID)
	}

	return r.Store.UpsertWork(entries[0])
}

// EnsureBibTeX returns the work's BibTeX text, fetching and caching it when
// absent. With refresh true the cache is bypassed and overwritten.
func (r *Resolver) EnsureBibTeX(ctx context.Context, arxivID string, workID int64, refresh bool) (string, error) {
	if !refresh {
		text, ok, err := r.Store.BibTeX(workID)
		if err != nil {
			return "", err
		}
		if ok {
			return text, nil
		}
	}

	resp, err := r.Client.FetchBibTeX(ctx, arxivID)
	if err != nil {
		return "", fmt.Errorf("fetching BibTeX for %s: %w", arxivID, err)
	}
	if logErr := r.Store.LogFetch(registry.FetchKindBibTeX, resp.URL, resp.Status, resp.Body); logErr != nil {
		return "", logErr
	}
	if len(resp.Body) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoBibTeX, arxivID)
	}

	return r.Store.CacheBibTeX(workID, resp.URL, resp.Body)
}
