package arxiv

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Meta holds the feed-level OpenSearch summary of a query response. The
// counters are nil when the source omits them or reports a non-numeric value.
type Meta struct {
	Updated      string
	TotalResults *int
	ItemsPerPage *int
	StartIndex   *int
}

// Entry is one parsed paper from an arXiv Atom feed. Optional fields are ""
// when absent; Categories and Authors preserve source order.
type Entry struct {
	ArxivID          string   `json:"arxiv_id"`
	ArxivIDVersioned string   `json:"arxiv_id_versioned"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary,omitempty"`
	Published        string   `json:"published,omitempty"`
	Updated          string   `json:"updated,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	JournalRef       string   `json:"journal_ref,omitempty"`
	DOI              string   `json:"doi,omitempty"`
	PrimaryCategory  string   `json:"primary_category,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	AbsURL           string   `json:"abs_url,omitempty"`
	PDFURL           string   `json:"pdf_url,omitempty"`
	Authors          []string `json:"authors,omitempty"`
}

// Atom feed wire types. encoding/xml matches the local element names, so the
// atom/arxiv/opensearch namespace prefixes do not need to be spelled out.
type feedXML struct {
	XMLName      xml.Name   `xml:"feed"`
	Updated      string     `xml:"updated"`
	TotalResults string     `xml:"totalResults"`
	ItemsPerPage string     `xml:"itemsPerPage"`
	StartIndex   string     `xml:"startIndex"`
	Entries      []entryXML `xml:"entry"`
}

type entryXML struct {
	ID              string        `xml:"id"`
	Title           string        `xml:"title"`
	Summary         string        `xml:"summary"`
	Published       string        `xml:"published"`
	Updated         string        `xml:"updated"`
	Comment         string        `xml:"comment"`
	JournalRef      string        `xml:"journal_ref"`
	DOI             string        `xml:"doi"`
	PrimaryCategory categoryXML   `xml:"primary_category"`
	Categories      []categoryXML `xml:"category"`
	Links           []linkXML     `xml:"link"`
	Authors         []authorXML   `xml:"author"`
}

type categoryXML struct {
	Term string `xml:"term,attr"`
}

type linkXML struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type authorXML struct {
	Name string `xml:"name"`
}

// ParseFeed decodes a raw arXiv Atom response into its feed-level summary and
// the ordered list of entries. Entry order is the result ranking. Malformed
// XML returns an error rather than a partial entry list.
func ParseFeed(data []byte) (Meta, []Entry, error) {
	var feed feedXML
	if err := xml.Unmarshal(data, &feed); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	meta := Meta{
		Updated:      collapseSpace(feed.Updated),
		TotalResults: optInt(feed.TotalResults),
		ItemsPerPage: optInt(feed.ItemsPerPage),
		StartIndex:   optInt(feed.StartIndex),
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		_, versioned := NormalizeID(e.ID)
		base, _ := NormalizeID(versioned)

		entry := Entry{
			ArxivID:          base,
			ArxivIDVersioned: versioned,
			Title:            collapseSpace(e.Title),
			Summary:          collapseSpace(e.Summary),
			Published:        collapseSpace(e.Published),
			Updated:          collapseSpace(e.Updated),
			Comment:          collapseSpace(e.Comment),
			JournalRef:       collapseSpace(e.JournalRef),
			DOI:              collapseSpace(e.DOI),
			PrimaryCategory:  strings.TrimSpace(e.PrimaryCategory.Term),
		}

		for _, cat := range e.Categories {
			term := strings.TrimSpace(cat.Term)
			if term != "" {
				entry.Categories = append(entry.Categories, term)
			}
		}

		for _, link := range e.Links {
			href := strings.TrimSpace(link.Href)
			if href == "" {
				continue
			}
			if entry.AbsURL == "" && link.Rel == "alternate" && link.Type == "text/html" {
				entry.AbsURL = href
			}
			if entry.PDFURL == "" && link.Type == "application/pdf" {
				entry.PDFURL = href
			}
		}

		for _, author := range e.Authors {
			name := collapseSpace(author.Name)
			if name != "" {
				entry.Authors = append(entry.Authors, name)
			}
		}

		entries = append(entries, entry)
	}

	return meta, entries, nil
}

// collapseSpace trims and collapses runs of whitespace (arXiv wraps titles and
// abstracts with embedded newlines and indentation).
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// optInt parses a decimal string into *int, returning nil for empty or
// non-numeric values so omitted counters stay distinguishable from zero.
func optInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
