// Package pdf extracts arXiv identifiers and titles from local PDF files.
package pdf

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// arXiv stamps papers with "arXiv:2301.04104v2" in the margin; also matched
// bare in running text. Covers new-style (YYMM.NNNNN) and old-style
// (archive/NNNNNNN) identifiers.
var arxivIDPattern = regexp.MustCompile(`arXiv:\s*(\d{4}\.\d{4,5}(?:v\d+)?|[a-z-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)`)

// ExtractArxivID extracts an arXiv identifier from a PDF file, searching the
// first few pages. Returns "" (not an error) when no identifier is printed.
func ExtractArxivID(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// The stamp is on the first page; scan a few more for robustness.
	maxPages := 3
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if m := arxivIDPattern.FindStringSubmatch(text); m != nil {
			return m[1], nil
		}
	}

	return "", nil
}

// ExtractTitle attempts to extract the title from a PDF. This is a
// best-effort heuristic: the first substantial line of the first page.
func ExtractTitle(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return "", nil
	}

	page := r.Page(1)
	if page.V.IsNull() {
		return "", nil
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line, nil
		}
	}

	return "", nil
}

// isHeaderLine filters out lines that are likely headers/footers, not titles.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	headers := []string{
		"arxiv:", "preprint", "submitted to", "accepted", "proceedings of",
		"journal of", "vol.", "doi:", "http://", "https://",
	}
	for _, h := range headers {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
