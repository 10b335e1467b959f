// Package domain holds the shared types passed between the search federation
// components: queries, indexer configuration and runtime state, result
// records, quality scores and search outcomes.
package domain

import "time"

// SearchMode selects how the search engine shapes its output.
type SearchMode string

const (
	ModeManual    SearchMode = "manual"
	ModeAutomatic SearchMode = "automatic"
)

// SearchQuery is the caller-supplied input to the search engine facade.
type SearchQuery struct {
	Title  string
	Author string
	Mode   SearchMode
}

// NormalizedQuery is derived once per request: a canonical title/author plus
// any title variants worth probing against providers that index differently.
type NormalizedQuery struct {
	CanonicalTitle  string
	CanonicalAuthor string
	VariantTitles   []string
}

// IndexerType distinguishes Torznab-protocol indexers from direct-site adapters.
type IndexerType string

const (
	IndexerTypeTorznab IndexerType = "torznab"
	IndexerTypeDirect  IndexerType = "direct"
)

// RateLimitConfig bounds how hard an indexer is hit.
type RateLimitConfig struct {
	RequestsPerSecond float64
	MaxConcurrent     int
}

// IndexerConfig is the configuration shape for a single provider instance.
// Loading it from a file/DB is an external collaborator's job; this struct is
// the in-core contract that collaborator must produce.
type IndexerConfig struct {
	Key         string
	Name        string
	Enabled     bool
	Type        IndexerType
	BaseURL     string
	APIKey      string
	SessionID   string
	Categories  []string
	Languages   []string
	Priority    int
	TimeoutMS   int
	VerifyTLS   bool
	RateLimit   RateLimitConfig
	ProviderKey string
}

// Capabilities describes what an indexer supports, lazily filled on the
// first successful test_connection.
type Capabilities struct {
	Search       bool
	BookSearch   bool
	AuthorSearch bool
	Categories   []string
	MaxLimit     int
	DefaultLimit int
}

// IndexerRuntimeState is the mutable, process-scoped health state of an
// indexer. Invariant: Available == false implies ConsecutiveFailures >= 3.
type IndexerRuntimeState struct {
	Available           bool
	ConsecutiveFailures int
	LastError           string
	LastSuccess         time.Time
	Capabilities        Capabilities
}

// Format is the normalized audio container/codec of a result.
type Format string

const (
	FormatM4B     Format = "m4b"
	FormatM4A     Format = "m4a"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatAAC     Format = "aac"
	FormatOGG     Format = "ogg"
	FormatUnknown Format = "unknown"
)

// Protocol is how a result's download_url should be interpreted.
type Protocol string

const (
	ProtocolTorrent Protocol = "torrent"
	ProtocolDirect  Protocol = "direct"
)

// Result is the normalized unit the core passes between components: one hit
// from one provider, already translated out of that provider's wire format.
type Result struct {
	IndexerName string
	IndexerID   string

	Title    string
	Author   string
	Narrator string
	Series   string
	Sequence string
	Language string

	Format      Format
	BitrateKbps int
	SizeBytes   int64

	Seeders int // -1 = unknown
	Peers   int // -1 = unknown

	Protocol Protocol
	Category string

	PublishDate time.Time

	DownloadURL string // .torrent URL or magnet
	InfoURL     string
	InfoHash    string
	MagnetURI   string

	RawAttributes map[string]string

	// SearchQueryUsed records which variant query produced this record, for
	// diagnostics.
	SearchQueryUsed string
}

// MatchStatus values used across the title/book-number/series breakdown.
type MatchStatus string

const (
	StatusMatch         MatchStatus = "match"
	StatusMismatch      MatchStatus = "mismatch"
	StatusResultMissing MatchStatus = "result_missing"
	StatusSearchMissing MatchStatus = "search_missing"
	StatusNoMatch       MatchStatus = "no_match"
	StatusNotApplicable MatchStatus = "not_applicable"
	StatusUnknown       MatchStatus = "unknown"
)

// SubScore is a scored sub-component with its status classification.
type SubScore struct {
	Score  float64
	Status MatchStatus
}

// RelevanceBreakdown captures the three relevance sub-scores plus the
// book-number alignment status that feeds confidence adjustments.
type RelevanceBreakdown struct {
	BookNumberStatus MatchStatus
	Author           SubScore
	Title            SubScore
	Series           SubScore
}

// QualityScore is the full scoring output for one result against one query.
type QualityScore struct {
	Relevance    float64
	Format       float64
	Bitrate      float64
	Source       float64
	Metadata     float64
	Availability float64
	Total        float64
	Confidence   float64
	Breakdown    RelevanceBreakdown
}

// ScoredResult pairs a result record with its computed quality assessment.
type ScoredResult struct {
	Result  Result
	Quality QualityScore
}

// DisplayResult is the manual-mode, 1-based-ordinal display shape.
type DisplayResult struct {
	ID        int
	Result    Result
	HumanSize string
	Quality   QualityScore
}

// AutomaticSelection is the automatic-mode output: the single accepted pick.
type AutomaticSelection struct {
	BookID             string
	SelectedResult     Result
	SelectionTimestamp time.Time
	ConfidenceScore    float64
}

// SearchOutcome is the top-level result of a search_for_audiobook call.
type SearchOutcome struct {
	Success          bool
	Error            string
	Query            SearchQuery
	Results          []DisplayResult
	Automatic        *AutomaticSelection
	ResultCount      int
	SearchTimeS      float64
	IndexersSearched int
	Timestamp        time.Time
}

// ProviderInfo is the static description of a registered adapter.
type ProviderInfo struct {
	Key     string
	Label   string
	Domains []string
}

// IndexerStatus is the per-indexer view exposed by Manager.Status / Indexer.Status.
type IndexerStatus struct {
	Key                 string
	Name                string
	Available           bool
	ConsecutiveFailures int
	LastError           string
	LastSuccess         time.Time
	Priority            int
}

// ServiceStatus is the aggregate manager status.
type ServiceStatus struct {
	Total     int
	Available int
	Indexers  []IndexerStatus
}
