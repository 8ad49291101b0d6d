package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/matsen/arxreg/internal/arxiv"
)

// WorkRecord is the full registry view of one work, shaped for JSON output.
type WorkRecord struct {
	WorkID          int64    `json:"work_id"`
	ArxivID         string   `json:"arxiv_id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Published       string   `json:"published,omitempty"`
	Updated         string   `json:"updated,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Comment         string   `json:"comment,omitempty"`
	PrimaryCategory string   `json:"primary_category,omitempty"`
	Categories      []string `json:"categories"`
	AbsURL          string   `json:"abs_url,omitempty"`
	PDFURL          string   `json:"pdf_url,omitempty"`
	JournalRef      string   `json:"journal_ref,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	CitationKey     string   `json:"citation_key,omitempty"`
	BibTeXCached    bool     `json:"bibtex_cached"`
	BibTeXFetchedAt string   `json:"bibtex_fetched_at,omitempty"`
	BibTeXSourceURL string   `json:"bibtex_source_url,omitempty"`
	BibTeXSHA256    string   `json:"bibtex_sha256,omitempty"`
}

// workRow holds the mutable descriptive fields read back during a merge.
type workRow struct {
	workID     int64
	comment    sql.NullString
	absURL     sql.NullString
	pdfURL     sql.NullString
	journalRef sql.NullString
	doi        sql.NullString
}

// UpsertWork inserts or merges one parsed entry keyed by its base arXiv ID
// and replaces the work's author list. The merge is read-merge-write inside
// one transaction: volatile fields (title, summary, timestamps, categories)
// take the incoming value, while comment, links, journal reference, and DOI
// never go from non-null back to null. A DOI uniqueness conflict is retried
// without the conflicting DOI.
func (s *Store) UpsertWork(e arxiv.Entry) (int64, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = upsertWorkTx(tx, e)
		return err
	})
	return id, err
}

func upsertWorkTx(tx *sql.Tx, e arxiv.Entry) (int64, error) {
	now := nowISO()

	categories := e.Categories
	if categories == nil {
		categories = []string{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return 0, fmt.Errorf("marshaling categories for %s: %w", e.ArxivID, err)
	}

	var existing workRow
	err = tx.QueryRow(
		`SELECT work_id, comment, abs_url, pdf_url, journal_ref, doi
		 FROM works WHERE arxiv_id = ?`, e.ArxivID,
	).Scan(&existing.workID, &existing.comment, &existing.absURL,
		&existing.pdfURL, &existing.journalRef, &existing.doi)

	var workID int64
	switch {
	case err == sql.ErrNoRows:
		workID, err = insertWorkTx(tx, e, string(categoriesJSON), now)
		if err != nil {
			return 0, err
		}
	case err != nil:
		return 0, fmt.Errorf("reading work %s: %w", e.ArxivID, err)
	default:
		workID = existing.workID
		if err := updateWorkTx(tx, e, existing, string(categoriesJSON), now); err != nil {
			return 0, err
		}
	}

	if err := replaceAuthorsTx(tx, workID, e.Authors); err != nil {
		return 0, err
	}
	return workID, nil
}

func insertWorkTx(tx *sql.Tx, e arxiv.Entry, categoriesJSON, now string) (int64, error) {
	const q = `
		INSERT INTO works(
		  arxiv_id, title, summary, published, updated, comment, primary_category,
		  categories_json, abs_url, pdf_url, journal_ref, doi, created_at, last_seen_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING work_id`

	run := func(doi any) (int64, error) {
		var id int64
		err := tx.QueryRow(q,
			e.ArxivID, e.Title, nullable(e.Summary), nullable(e.Published),
			nullable(e.Updated), nullable(e.Comment), nullable(e.PrimaryCategory),
			categoriesJSON, nullable(e.AbsURL), nullable(e.PDFURL),
			nullable(e.JournalRef), doi, now, now,
		).Scan(&id)
		return id, err
	}

	id, err := run(nullable(e.DOI))
	if isUniqueViolation(err) && e.DOI != "" {
		// Upstream metadata occasionally assigns one DOI to two works.
		id, err = run(nil)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting work %s: %w", e.ArxivID, err)
	}
	return id, nil
}

func updateWorkTx(tx *sql.Tx, e arxiv.Entry, old workRow, categoriesJSON, now string) error {
	const q = `
		UPDATE works SET
		  title = ?, summary = ?, published = ?, updated = ?, comment = ?,
		  primary_category = ?, categories_json = ?, abs_url = ?, pdf_url = ?,
		  journal_ref = ?, doi = ?, last_seen_at = ?
		WHERE work_id = ?`

	run := func(doi any) error {
		_, err := tx.Exec(q,
			e.Title, nullable(e.Summary), nullable(e.Published), nullable(e.Updated),
			coalesce(e.Comment, old.comment), nullable(e.PrimaryCategory), categoriesJSON,
			coalesce(e.AbsURL, old.absURL), coalesce(e.PDFURL, old.pdfURL),
			coalesce(e.JournalRef, old.journalRef), doi, now, old.workID,
		)
		return err
	}

	// First-write-wins for DOI: a stored DOI is never replaced.
	doi := any(nullable(e.DOI))
	if old.doi.Valid {
		doi = old.doi.String
	}
	err := run(doi)
	if isUniqueViolation(err) && !old.doi.Valid {
		err = run(nil)
	}
	if err != nil {
		return fmt.Errorf("updating work %s: %w", e.ArxivID, err)
	}
	return nil
}

// coalesce prefers the incoming value, keeping the stored one when the new
// value is empty.
func coalesce(incoming string, stored sql.NullString) any {
	if incoming != "" {
		return incoming
	}
	if stored.Valid {
		return stored.String
	}
	return nil
}

// replaceAuthorsTx rebuilds a work's author list with dense positions. The
// latest parse is authoritative for order; repeated names keep their first
// position.
func replaceAuthorsTx(tx *sql.Tx, workID int64, names []string) error {
	if _, err := tx.Exec(`DELETE FROM work_authors WHERE work_id = ?`, workID); err != nil {
		return fmt.Errorf("clearing authors for work %d: %w", workID, err)
	}

	seen := make(map[int64]bool)
	pos := 0
	for _, name := range names {
		if _, err := tx.Exec(
			`INSERT INTO authors(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("inserting author %q: %w", name, err)
		}
		var authorID int64
		if err := tx.QueryRow(
			`SELECT author_id FROM authors WHERE name = ?`, name,
		).Scan(&authorID); err != nil {
			return fmt.Errorf("resolving author %q: %w", name, err)
		}
		if seen[authorID] {
			continue
		}
		seen[authorID] = true
		if _, err := tx.Exec(
			`INSERT INTO work_authors(work_id, author_id, position) VALUES(?, ?, ?)`,
			workID, authorID, pos,
		); err != nil {
			return fmt.Errorf("linking author %q to work %d: %w", name, workID, err)
		}
		pos++
	}
	return nil
}

// FindWork resolves a base arXiv ID to its work identity.
func (s *Store) FindWork(arxivID string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT work_id FROM works WHERE arxiv_id = ?`, arxivID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finding work %s: %w", arxivID, err)
	}
	return id, true, nil
}

// Work returns the full registry record for a work, including its ordered
// authors and BibTeX cache status. The citation key is left empty; callers
// that want one assign it via EnsureCitationKey.
func (s *Store) Work(workID int64) (*WorkRecord, error) {
	var (
		rec            WorkRecord
		summary        sql.NullString
		published      sql.NullString
		updated        sql.NullString
		comment        sql.NullString
		primary        sql.NullString
		categoriesJSON sql.NullString
		absURL         sql.NullString
		pdfURL         sql.NullString
		journalRef     sql.NullString
		doi            sql.NullString
	)
	err := s.db.QueryRow(
		`SELECT work_id, arxiv_id, title, summary, published, updated, comment,
		        primary_category, categories_json, abs_url, pdf_url, journal_ref, doi
		 FROM works WHERE work_id = ?`, workID,
	).Scan(&rec.WorkID, &rec.ArxivID, &rec.Title, &summary, &published, &updated,
		&comment, &primary, &categoriesJSON, &absURL, &pdfURL, &journalRef, &doi)
	if err == sql.ErrNoRows {
		return nil, ErrWorkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading work %d: %w", workID, err)
	}

	rec.Summary = summary.String
	rec.Published = published.String
	rec.Updated = updated.String
	rec.Comment = comment.String
	rec.PrimaryCategory = primary.String
	rec.AbsURL = absURL.String
	rec.PDFURL = pdfURL.String
	rec.JournalRef = journalRef.String
	rec.DOI = doi.String

	rec.Categories = []string{}
	if categoriesJSON.Valid && categoriesJSON.String != "" {
		if err := json.Unmarshal([]byte(categoriesJSON.String), &rec.Categories); err != nil {
			return nil, fmt.Errorf("decoding categories for work %d: %w", workID, err)
		}
	}

	rec.Authors, err = s.workAuthors(workID)
	if err != nil {
		return nil, err
	}

	var fetchedAt, sourceURL, sum string
	err = s.db.QueryRow(
		`SELECT fetched_at, source_url, sha256 FROM bibtex WHERE work_id = ?`, workID,
	).Scan(&fetchedAt, &sourceURL, &sum)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("reading bibtex status for work %d: %w", workID, err)
	default:
		rec.BibTeXCached = true
		rec.BibTeXFetchedAt = fetchedAt
		rec.BibTeXSourceURL = sourceURL
		rec.BibTeXSHA256 = sum
	}

	return &rec, nil
}

// workAuthors returns a work's author names in position order.
func (s *Store) workAuthors(workID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT a.name
		 FROM work_authors wa
		 JOIN authors a ON a.author_id = wa.author_id
		 WHERE wa.work_id = ?
		 ORDER BY wa.position ASC`, workID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading authors for work %d: %w", workID, err)
	}
	defer rows.Close()

	authors := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		authors = append(authors, name)
	}
	return authors, rows.Err()
}
