package domain

import "fmt"

// ErrorKind classifies a search-core error per the propagation policy: the
// indexer classifies transport/parse failures into one of these kinds so
// callers can branch with errors.As instead of string matching.
type ErrorKind string

const (
	ErrTimeout       ErrorKind = "timeout"
	ErrNetwork       ErrorKind = "network"
	ErrAuthRejected  ErrorKind = "auth_rejected"
	ErrNotFound      ErrorKind = "not_found"
	ErrRateLimited   ErrorKind = "rate_limited"
	ErrHTTP          ErrorKind = "http_error"
	ErrParse         ErrorKind = "parse_error"
	ErrUnavailable   ErrorKind = "unavailable"
	ErrInvalidConfig ErrorKind = "invalid_config"
)

// ErrHTTPStatus classifies an HTTP status code into the error taxonomy:
// 401/403 is an auth rejection, 404 is not-found, 429 is rate-limited, and
// any other 4xx/5xx is a generic HttpError.
func ErrHTTPStatus(status int) ErrorKind {
	switch status {
	case 401, 403:
		return ErrAuthRejected
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return ErrHTTP
	}
}

// SearchError is a typed error carrying an ErrorKind plus the indexer it
// originated from, so the indexer manager can attribute failures without
// parsing error strings.
type SearchError struct {
	Kind    ErrorKind
	Indexer string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Indexer != "" {
		return fmt.Sprintf("%s: %s: %v", e.Indexer, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// NewSearchError wraps err with a classification and the originating indexer key.
func NewSearchError(kind ErrorKind, indexer string, err error) *SearchError {
	return &SearchError{Kind: kind, Indexer: indexer, Err: err}
}
