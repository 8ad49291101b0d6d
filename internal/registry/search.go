package registry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matsen/arxreg/internal/arxiv"
)

// CachedSearch is the most recent stored search matching a set of parameters.
type CachedSearch struct {
	SearchID    int64
	RequestedAt time.Time
	RawXML      []byte
}

// RecordSearch stores one executed discovery query: the searches row, an
// upsert of every parsed entry, and the ranked results linking them, all in
// one transaction. Search rows are immutable once stored; a refetch always
// creates a new row.
func (s *Store) RecordSearch(params arxiv.SearchParams, urlStr string, meta arxiv.Meta, raw []byte, entries []arxiv.Entry) (int64, error) {
	var searchID int64
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow(
			`INSERT INTO searches(
			   requested_at, query, url, start, max_results, sort_by, sort_order,
			   total_results, items_per_page, start_index, result_count, raw_sha256, raw_xml
			 ) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 RETURNING search_id`,
			nowISO(), params.Query, urlStr, params.Start, params.MaxResults,
			params.SortBy, params.SortOrder,
			meta.TotalResults, meta.ItemsPerPage, meta.StartIndex,
			len(entries), hashHex(raw), string(raw),
		).Scan(&searchID)
		if err != nil {
			return fmt.Errorf("inserting search: %w", err)
		}

		for pos, e := range entries {
			workID, err := upsertWorkTx(tx, e)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(
				`INSERT INTO search_results(search_id, position, arxiv_id, arxiv_id_versioned, work_id)
				 VALUES(?, ?, ?, ?, ?)`,
				searchID, pos, e.ArxivID, e.ArxivIDVersioned, workID,
			); err != nil {
				return fmt.Errorf("inserting search result %d: %w", pos, err)
			}
		}
		return nil
	})
	return searchID, err
}

// FindCachedSearch looks up the most recent search with exactly matching
// parameters and returns it when younger than ttl. A non-positive ttl
// disables caching. Ages are compared in UTC against the stored request
// timestamp.
func (s *Store) FindCachedSearch(params arxiv.SearchParams, ttl time.Duration) (*CachedSearch, error) {
	if ttl <= 0 {
		return nil, nil
	}

	var (
		searchID    int64
		requestedAt string
		rawXML      string
	)
	err := s.db.QueryRow(
		`SELECT search_id, requested_at, raw_xml
		 FROM searches
		 WHERE query = ? AND start = ? AND max_results = ? AND sort_by = ? AND sort_order = ?
		 ORDER BY requested_at DESC
		 LIMIT 1`,
		params.Query, params.Start, params.MaxResults, params.SortBy, params.SortOrder,
	).Scan(&searchID, &requestedAt, &rawXML)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up cached search: %w", err)
	}

	t, err := time.Parse(time.RFC3339, requestedAt)
	if err != nil {
		return nil, nil
	}
	if time.Now().UTC().Sub(t.UTC()) > ttl {
		return nil, nil
	}

	return &CachedSearch{SearchID: searchID, RequestedAt: t, RawXML: []byte(rawXML)}, nil
}

// SearchResultIDs returns a stored search's base arXiv IDs in rank order.
func (s *Store) SearchResultIDs(searchID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT arxiv_id FROM search_results WHERE search_id = ? ORDER BY position ASC`,
		searchID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
