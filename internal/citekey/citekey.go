// Package citekey derives human-readable citation keys from work metadata.
//
// A base key is surname + four-digit year + first title token, lower-cased and
// stripped to alphanumerics ("doe2023scaling"). Collision handling against
// already-assigned keys is the registry's job; this package is pure string
// derivation.
package citekey

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9]+`)
	tokenSplitRe = regexp.MustCompile(`[^A-Za-z0-9]+`)
	yearRe       = regexp.MustCompile(`^(\d{4})`)
	digitsRe     = regexp.MustCompile(`\D+`)
)

// Surname extracts the surname from an author display name. "Last, First"
// keeps the part before the comma; otherwise the last space-separated token.
func Surname(name string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if cleaned == "" {
		return ""
	}
	if before, _, ok := strings.Cut(cleaned, ","); ok {
		return strings.TrimSpace(before)
	}
	parts := strings.Fields(cleaned)
	return parts[len(parts)-1]
}

// Normalize lower-cases a value and strips everything but ASCII letters and
// digits.
func Normalize(value string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(value), "")
}

// TitleToken returns the first maximal run of letters/digits in a title, or
// "" for titles with none.
func TitleToken(title string) string {
	for _, tok := range tokenSplitRe.Split(strings.TrimSpace(title), -1) {
		if tok != "" {
			return tok
		}
	}
	return ""
}

// Year extracts a four-digit year from a published timestamp, defaulting to
// "0000" when the value is absent or does not start with four digits.
func Year(published string) string {
	m := yearRe.FindStringSubmatch(strings.TrimSpace(published))
	if m == nil {
		return "0000"
	}
	return m[1]
}

// Base derives the un-suffixed citation key for a work. When the metadata
// yields nothing it falls back to "arxiv" + the alphanumeric identifier, so
// the base is never empty for a work with an identifier.
func Base(firstAuthor, published, title, arxivID string) string {
	base := Normalize(Surname(firstAuthor)) + Year(published) + Normalize(TitleToken(title))
	if base == "" {
		base = "arxiv" + Normalize(arxivID)
	}
	return base
}

// IDDigits returns the last n digits of the identifier's numeric portion, or
// "" when the identifier has no digits.
func IDDigits(arxivID string, n int) string {
	digits := digitsRe.ReplaceAllString(arxivID, "")
	if digits == "" {
		return ""
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return digits
}
