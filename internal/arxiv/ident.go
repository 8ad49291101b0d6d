package arxiv

import (
	"regexp"
	"strings"
)

var (
	schemeLabelRe = regexp.MustCompile(`(?i)^arxiv:\s*`)
	versionRe     = regexp.MustCompile(`v\d+$`)
)

// NormalizeID canonicalizes an arXiv identifier into its base and versioned
// forms. It accepts bare IDs ("2301.04104"), versioned IDs ("2301.04104v2"),
// abstract-page URLs, and PDF URLs, with an optional "arXiv:" label, query
// string, trailing slash, or ".pdf" extension.
//
// NormalizeID is a pure function and idempotent: normalizing an
// already-normalized base ID returns it unchanged.
func NormalizeID(value string) (base, versioned string) {
	raw := strings.TrimSpace(value)
	raw = schemeLabelRe.ReplaceAllString(raw, "")
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "/")
	if _, after, ok := strings.Cut(raw, "/abs/"); ok {
		raw = after
	}
	if _, after, ok := strings.Cut(raw, "/pdf/"); ok {
		raw = after
	}
	raw = strings.TrimSuffix(raw, ".pdf")
	raw = strings.TrimSpace(raw)

	return versionRe.ReplaceAllString(raw, ""), raw
}
