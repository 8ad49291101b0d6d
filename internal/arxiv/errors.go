package arxiv

import "errors"

// Common errors returned by the arXiv client and feed decoder.
var (
	// ErrNetwork indicates a transport-level failure (connect, timeout).
	ErrNetwork = errors.New("network error communicating with arXiv")

	// ErrEmptyResponse indicates the server returned no body.
	ErrEmptyResponse = errors.New("empty response from arXiv")

	// ErrMalformedFeed indicates the Atom response could not be parsed.
	ErrMalformedFeed = errors.New("malformed arXiv feed")

	// ErrInvalidParams indicates the search parameters are unusable.
	ErrInvalidParams = errors.New("invalid arXiv search parameters")
)

// IsNetwork returns true if the error indicates a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
