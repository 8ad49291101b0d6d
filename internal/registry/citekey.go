package registry

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/matsen/arxreg/internal/citekey"
)

// EnsureCitationKey returns the work's citation key, generating and persisting
// one on first call. Keys are write-once: later calls return the stored key
// without touching the derivation, so a key never changes once handed out.
//
// Collision policy (against other works only): try the bare base; then base
// plus the last six digits of the arXiv ID's numeric portion (work_id when the
// ID has no digits); then base plus the raw work_id. First writer wins.
func (s *Store) EnsureCitationKey(workID int64) (string, error) {
	var key string
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow(
			`SELECT key FROM citation_keys WHERE work_id = ?`, workID,
		).Scan(&key)
		if err == nil {
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("reading citation key for work %d: %w", workID, err)
		}

		var (
			arxivID   string
			title     string
			published sql.NullString
		)
		err = tx.QueryRow(
			`SELECT arxiv_id, title, published FROM works WHERE work_id = ?`, workID,
		).Scan(&arxivID, &title, &published)
		if err == sql.ErrNoRows {
			return ErrWorkNotFound
		}
		if err != nil {
			return fmt.Errorf("reading work %d: %w", workID, err)
		}

		var firstAuthor string
		err = tx.QueryRow(
			`SELECT a.name
			 FROM work_authors wa
			 JOIN authors a ON a.author_id = wa.author_id
			 WHERE wa.work_id = ?
			 ORDER BY wa.position ASC
			 LIMIT 1`, workID,
		).Scan(&firstAuthor)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("reading first author for work %d: %w", workID, err)
		}

		base := citekey.Base(firstAuthor, published.String, title, arxivID)

		candidate := base
		if taken, err := keyTakenByOther(tx, candidate, workID); err != nil {
			return err
		} else if taken {
			suffix := citekey.IDDigits(arxivID, 6)
			if suffix == "" {
				suffix = strconv.FormatInt(workID, 10)
			}
			candidate = base + suffix
			if taken, err := keyTakenByOther(tx, candidate, workID); err != nil {
				return err
			} else if taken {
				candidate = base + strconv.FormatInt(workID, 10)
			}
		}

		if _, err := tx.Exec(
			`INSERT INTO citation_keys(work_id, key, base_key, generated_at) VALUES(?, ?, ?, ?)`,
			workID, candidate, base, nowISO(),
		); err != nil {
			return fmt.Errorf("storing citation key for work %d: %w", workID, err)
		}
		key = candidate
		return nil
	})
	return key, err
}

// keyTakenByOther reports whether a candidate key is already assigned to a
// different work.
func keyTakenByOther(tx *sql.Tx, key string, workID int64) (bool, error) {
	var owner int64
	err := tx.QueryRow(`SELECT work_id FROM citation_keys WHERE key = ?`, key).Scan(&owner)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking citation key %q: %w", key, err)
	}
	return owner != workID, nil
}
