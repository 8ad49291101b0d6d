// Package arxiv talks to the arXiv Atom API: identifier normalization, feed
// decoding, and a rate-limited HTTP client for search, metadata, and BibTeX
// retrieval.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the arXiv Atom API query endpoint.
	BaseURL = "https://export.arxiv.org/api/query"

	// BibTeXBaseURL serves per-paper BibTeX text.
	BibTeXBaseURL = "https://arxiv.org/bibtex"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultUserAgent identifies this tool per arXiv API etiquette.
	DefaultUserAgent = "arxreg/arxiv-registry"

	// DefaultMaxResults is the default search page size.
	DefaultMaxResults = 25

	// MaxPageSize is the largest page the API serves per request.
	MaxPageSize = 2000
)

// requestInterval follows the arXiv API guideline of one request every
// three seconds.
const requestInterval = 3 * time.Second

// Sort criteria accepted by the search endpoint.
const (
	SortRelevance   = "relevance"
	SortLastUpdated = "lastUpdatedDate"
	SortSubmitted   = "submittedDate"

	OrderAscending  = "ascending"
	OrderDescending = "descending"
)

// SearchParams identifies one discovery query. Two searches with equal params
// are considered the same request for caching purposes.
type SearchParams struct {
	Query      string
	Start      int
	MaxResults int
	SortBy     string
	SortOrder  string
}

// Validate checks that the parameters can be issued against the API.
func (p SearchParams) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("%w: query must be non-empty", ErrInvalidParams)
	}
	if p.MaxResults < 1 || p.MaxResults > MaxPageSize {
		return fmt.Errorf("%w: max results must be in [1, %d]", ErrInvalidParams, MaxPageSize)
	}
	switch p.SortBy {
	case SortRelevance, SortLastUpdated, SortSubmitted:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidParams, p.SortBy)
	}
	switch p.SortOrder {
	case OrderAscending, OrderDescending:
	default:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidParams, p.SortOrder)
	}
	return nil
}

// Response is the outcome of one remote fetch. Status is 0 when the request
// never reached the server.
type Response struct {
	URL    string
	Status int
	Body   []byte
}

// Client is a rate-limited HTTP client for the arXiv API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	bibtexURL  string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom query endpoint (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithBibTeXBaseURL sets a custom BibTeX endpoint (for testing).
func WithBibTeXBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.bibtexURL = u
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		baseURL:    BaseURL,
		bibtexURL:  BibTeXBaseURL,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryURL builds the search URL for the given parameters.
func (c *Client) QueryURL(params SearchParams) string {
	q := url.Values{}
	q.Set("search_query", params.Query)
	q.Set("start", strconv.Itoa(params.Start))
	q.Set("max_results", strconv.Itoa(params.MaxResults))
	q.Set("sortBy", params.SortBy)
	q.Set("sortOrder", params.SortOrder)
	return c.baseURL + "?" + q.Encode()
}

// LookupURL builds the id_list URL for a single base identifier.
func (c *Client) LookupURL(arxivID string) string {
	q := url.Values{}
	q.Set("id_list", arxivID)
	q.Set("max_results", "1")
	return c.baseURL + "?" + q.Encode()
}

// BibTeXURL builds the BibTeX retrieval URL for a single base identifier.
func (c *Client) BibTeXURL(arxivID string) string {
	return c.bibtexURL + "/" + url.PathEscape(arxivID)
}

// Search issues a discovery query and returns the raw Atom response.
func (c *Client) Search(ctx context.Context, params SearchParams) (*Response, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.get(ctx, c.QueryURL(params))
}

// Lookup fetches metadata for one base identifier.
func (c *Client) Lookup(ctx context.Context, arxivID string) (*Response, error) {
	return c.get(ctx, c.LookupURL(arxivID))
}

// FetchBibTeX fetches the BibTeX text for one base identifier.
func (c *Client) FetchBibTeX(ctx context.Context, arxivID string) (*Response, error) {
	return c.get(ctx, c.BibTeXURL(arxivID))
}

// get performs a rate-limited GET. HTTP error statuses are returned with
// their body preserved so callers can log them; transport failures map to
// ErrNetwork.
func (c *Client) get(ctx context.Context, u string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}

	return &Response{URL: u, Status: resp.StatusCode, Body: body}, nil
}
