package registry

import (
	"database/sql"
	"fmt"
	"strings"
)

// CacheBibTeX stores the fetched BibTeX body for a work, replacing any prior
// entry (at most one cached blob per work). The stored text is trimmed to a
// single trailing newline; the hash covers the raw body as fetched.
func (s *Store) CacheBibTeX(workID int64, sourceURL string, body []byte) (string, error) {
	text := strings.TrimSpace(string(body)) + "\n"
	_, err := s.db.Exec(
		`INSERT INTO bibtex(work_id, fetched_at, source_url, sha256, bibtex)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(work_id) DO UPDATE SET
		   fetched_at = excluded.fetched_at,
		   source_url = excluded.source_url,
		   sha256 = excluded.sha256,
		   bibtex = excluded.bibtex`,
		workID, nowISO(), sourceURL, hashHex(body), text,
	)
	if err != nil {
		return "", fmt.Errorf("caching bibtex for work %d: %w", workID, err)
	}
	return text, nil
}

// BibTeX returns the cached BibTeX text for a work, with ok false when none
// has been fetched.
func (s *Store) BibTeX(workID int64) (string, bool, error) {
	var text string
	err := s.db.QueryRow(`SELECT bibtex FROM bibtex WHERE work_id = ?`, workID).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading bibtex for work %d: %w", workID, err)
	}
	return text, true, nil
}
