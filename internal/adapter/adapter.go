// Package adapter defines the provider-adapter contract: a pure
// request-builder + response-parser pair with no I/O of its own. The
// indexer (internal/indexer) owns URL composition, auth injection, TLS,
// timeouts, and turns adapter errors into the provider-agnostic error
// taxonomy.
package adapter

import (
	"net/url"

	"shelfsearch/audiosearch/internal/domain"
)

// RequestSpec is everything an adapter needs the indexer to turn into an
// actual HTTP request. Adapters build these; they never dial a socket.
type RequestSpec struct {
	Method       string
	Path         string
	Params       url.Values
	Form         url.Values
	JSONBody     any
	Headers      map[string]string
	ExpectsJSON  bool
	AllowMissing bool // true if a non-2xx response should still be parsed (e.g. soft 404 pages)

	// AbsoluteURL, when set, is fetched as-is instead of being composed
	// against the indexer's base URL. Used for info-hash prefetch, where
	// the `.torrent` URL already came back fully qualified in a result.
	AbsoluteURL string
}

// HealthResult is what ParseHealthResponse produces from a probe response.
type HealthResult struct {
	Capabilities domain.Capabilities
	Version      string
}

// SearchParams is the normalized input to BuildSearchRequest, combining the
// caller's query with the owning indexer's configuration (categories,
// languages, credentials) so the adapter can shape provider-specific
// parameters without reaching back into the indexer.
type SearchParams struct {
	Query  string
	Author string
	Title  string
	Limit  int
	Offset int
	Config domain.IndexerConfig
}

// Adapter encapsulates one provider's wire protocol. Implementations must be
// pure: no network calls, no sleeping, no shared mutable state beyond their
// own immutable configuration.
type Adapter interface {
	// Key is the adapter's registry identifier, e.g. "torznab".
	Key() string
	// Domains lists host suffixes this adapter claims by default resolution.
	Domains() []string

	// BuildHealthRequest returns the health-probe RequestSpec, or nil if
	// this provider has no cheap connectivity check worth performing.
	BuildHealthRequest(cfg domain.IndexerConfig) *RequestSpec
	// ParseHealthResponse turns a health-probe response body into capabilities.
	ParseHealthResponse(payload []byte) (HealthResult, error)

	// BuildSearchRequest builds the RequestSpec for a search call.
	BuildSearchRequest(params SearchParams) RequestSpec
	// ParseSearchResults turns a search response body into normalized results.
	// Per-item parse failures are logged and dropped; only a payload-level
	// failure (e.g. invalid XML/JSON envelope) returns an error.
	ParseSearchResults(payload []byte) ([]domain.Result, error)
}

// Factory constructs an Adapter for a given indexer configuration. Adapters
// are values: a factory call must not perform I/O.
type Factory func(cfg domain.IndexerConfig) Adapter

// InfoHashEnricher is implemented by adapters whose results may carry a
// `.torrent` download URL but no announced info hash. The indexer fetches
// the `.torrent` payload and asks the adapter to extract the hash from it,
// rather than the adapter performing that fetch itself (pure-adapter
// contract).
type InfoHashEnricher interface {
	// ExtractInfoHash computes an info hash from a raw `.torrent` payload.
	ExtractInfoHash(payload []byte) (string, error)
}

// MultiStepSearcher is implemented by adapters whose search can't be
// satisfied by a single request/response round trip. AudiobookBay returns
// a search-results page that only links to detail pages carrying the info
// hash and size. The indexer checks for this interface and, when present,
// drives the search-page -> N detail-page sequence instead of the plain
// BuildSearchRequest/ParseSearchResults pair.
type MultiStepSearcher interface {
	// SearchPageCount reports how many search-result pages to fetch (the
	// "extended paging"), e.g. 2 for AudiobookBay's page 1 + page 2.
	SearchPageCount() int
	// BuildSearchPageRequest builds the RequestSpec for the given 1-based
	// page of the search-results listing.
	BuildSearchPageRequest(params SearchParams, page int) RequestSpec
	// ParseSearchPage extracts the detail-page URLs worth fetching from a
	// search-results payload.
	ParseSearchPage(payload []byte) (detailURLs []string, err error)
	// BuildDetailRequest builds the RequestSpec for one detail page.
	BuildDetailRequest(detailURL string) RequestSpec
	// ParseDetailPage turns one detail page payload into a Result. ok is
	// false when the page is missing the fields a usable result needs.
	ParseDetailPage(payload []byte, detailURL string) (domain.Result, bool)
}
