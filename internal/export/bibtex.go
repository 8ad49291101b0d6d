// Package export rewrites and appends BibTeX entries with registry citation
// keys. BibTeX text is treated as opaque apart from the leading "@type{key,"
// clause of the first entry.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Matches an entry's opening clause: @type{key,
	keyRe = regexp.MustCompile(`@(\w+)\s*\{\s*([^,]+)\s*,`)

	// Matches entry starts when scanning a whole file for existing keys.
	entryStartRe = regexp.MustCompile(`@\w+\s*\{\s*([^,\s]+)\s*,`)
)

// RewriteKey replaces the key token of the first entry in bibtex with newKey,
// leaving every other byte untouched. Input without a recognizable opening
// clause is returned unmodified.
func RewriteKey(bibtex, newKey string) string {
	m := keyRe.FindStringSubmatchIndex(bibtex)
	if m == nil {
		return bibtex
	}
	start, end := m[4], m[5]
	return bibtex[:start] + newKey + bibtex[end:]
}

// ReadKeys collects the citation keys already present in a .bib file.
// A missing file yields an empty set.
func ReadKeys(path string) (map[string]bool, error) {
	keys := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	for _, m := range entryStartRe.FindAllStringSubmatch(string(data), -1) {
		keys[m[1]] = true
	}
	return keys, nil
}

// Append writes one BibTeX entry to the end of a .bib file, creating parent
// directories as needed and separating entries with a blank line.
func Append(path, entry string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.TrimRight(entry, "\n") + "\n\n"); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}
