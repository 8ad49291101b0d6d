package registry

import "fmt"

// Stats summarizes registry contents.
type Stats struct {
	Works        int64 `json:"works"`
	Authors      int64 `json:"authors"`
	Searches     int64 `json:"searches"`
	BibTeX       int64 `json:"bibtex"`
	CitationKeys int64 `json:"citation_keys"`
}

// Stats counts the registry's works, authors, searches, cached BibTeX
// entries, and citation keys.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"works", &st.Works},
		{"authors", &st.Authors},
		{"searches", &st.Searches},
		{"bibtex", &st.BibTeX},
		{"citation_keys", &st.CitationKeys},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(1) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return st, nil
}
