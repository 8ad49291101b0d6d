package registry

import "fmt"

// Fetch kinds recorded in the audit log.
const (
	FetchKindSearch = "arxiv_api_search"
	FetchKindIDList = "arxiv_api_id_list"
	FetchKindBibTeX = "arxiv_bibtex"
)

// LogFetch appends one audit record for a remote retrieval attempt. A status
// of 0 (transport failure) and an empty body's hash are stored as NULL. Log
// rows are never updated or deleted.
func (s *Store) LogFetch(kind, url string, status int, body []byte) error {
	var statusVal any
	if status != 0 {
		statusVal = status
	}
	var sum any
	if len(body) > 0 {
		sum = hashHex(body)
	}
	_, err := s.db.Exec(
		`INSERT INTO fetches(fetched_at, kind, url, status, sha256, bytes)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		nowISO(), kind, url, statusVal, sum, len(body),
	)
	if err != nil {
		return fmt.Errorf("logging fetch: %w", err)
	}
	return nil
}
