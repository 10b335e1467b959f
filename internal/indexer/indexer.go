// Package indexer is the runtime wrapper around one provider
// adapter. An Indexer owns the things an adapter must not touch (URL
// composition, auth header/cookie injection, TLS verification, per-request
// timeout, rate limiting) and turns transport failures into the
// provider-agnostic error taxonomy while tracking health counters for
// the circuit breaker.
package indexer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
	"shelfsearch/audiosearch/internal/metrics"
	"shelfsearch/audiosearch/internal/retry"
)

// newTransport builds the base HTTP transport for an indexer, wrapped with
// an OpenTelemetry span per request, honoring verify_tls from config.
func newTransport(verifyTLS bool) http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if !verifyTLS {
		if base.TLSClientConfig == nil {
			base.TLSClientConfig = &tls.Config{}
		}
		base.TLSClientConfig.InsecureSkipVerify = true
	}
	return otelhttp.NewTransport(base)
}

// failureThreshold is the number of consecutive search/health failures that
// opens the circuit.
const failureThreshold = 3

const defaultTimeout = 30 * time.Second

// TestResult is the outcome of TestConnection.
type TestResult struct {
	Success      bool
	Capabilities domain.Capabilities
	Version      string
	Error        string
}

// Indexer wraps one adapter with connection config, health state, and a
// local rate limiter. Safe for concurrent use: health state is guarded by a
// mutex and never touched while holding it across I/O.
type Indexer struct {
	cfg     domain.IndexerConfig
	adapter adapter.Adapter
	client  *http.Client
	logger  *slog.Logger

	limiter *rate.Limiter
	sem     *semaphore.Weighted

	mu    sync.Mutex
	state domain.IndexerRuntimeState
}

// Option configures an Indexer at construction time.
type Option func(*Indexer)

// WithHTTPClient overrides the default http.Client (used by tests to inject
// an httptest-backed transport).
func WithHTTPClient(client *http.Client) Option {
	return func(i *Indexer) { i.client = client }
}

// WithLogger overrides the default no-op-safe logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New builds an Indexer around ad, configured from cfg. The rate limiter and
// semaphore are sized from cfg.RateLimit; zero values fall back to 1000
// requests per second and a concurrency cap (and burst) of 4 rather than
// blocking forever.
func New(cfg domain.IndexerConfig, ad adapter.Adapter, opts ...Option) *Indexer {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 1000
	}
	maxConcurrent := cfg.RateLimit.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	idx := &Indexer{
		cfg:     cfg,
		adapter: ad,
		client:  &http.Client{Timeout: timeout, Transport: newTransport(cfg.VerifyTLS)},
		logger:  slog.Default(),
		limiter: rate.NewLimiter(rate.Limit(rps), maxConcurrent),
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		// Optimistic until proven otherwise: a freshly constructed indexer
		// has zero consecutive failures, so the invariant
		// (available==false => consecutive_failures>=3) requires Available
		// to start true. Capabilities stay zero-value until TestConnection.
		state: domain.IndexerRuntimeState{Available: true},
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Key returns the owning indexer config's key.
func (i *Indexer) Key() string { return i.cfg.Key }

// Config returns the indexer's configuration.
func (i *Indexer) Config() domain.IndexerConfig { return i.cfg }

// Status reports the current runtime health snapshot.
func (i *Indexer) Status() domain.IndexerStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	return domain.IndexerStatus{
		Key:                 i.cfg.Key,
		Name:                i.cfg.Name,
		Available:           i.state.Available,
		ConsecutiveFailures: i.state.ConsecutiveFailures,
		LastError:           i.state.LastError,
		LastSuccess:         i.state.LastSuccess,
		Priority:            i.cfg.Priority,
	}
}

// Available reports whether the circuit is currently closed.
func (i *Indexer) Available() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.Available
}

// Connect runs TestConnection and returns whether the indexer is now
// available.
func (i *Indexer) Connect(ctx context.Context) bool {
	result := i.TestConnection(ctx)
	return result.Success
}

// TestConnection executes the adapter's health RequestSpec (if any) and
// updates health state on success/failure. A nil health request means the
// provider has no cheap connectivity check; that is treated as trivially
// successful so indexers without one still become available.
//
// Health probes may retry transiently: a single flaky DNS/connect failure
// shouldn't open the circuit on its own.
func (i *Indexer) TestConnection(ctx context.Context) TestResult {
	spec := i.adapter.BuildHealthRequest(i.cfg)
	if spec == nil {
		i.markSuccess()
		return TestResult{Success: true}
	}

	var payload []byte
	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		var doErr error
		payload, doErr = i.do(ctx, *spec)
		return doErr
	})
	if err != nil {
		i.markFailure(err)
		return TestResult{Success: false, Error: err.Error()}
	}

	health, err := i.adapter.ParseHealthResponse(payload)
	if err != nil {
		i.markFailure(domain.NewSearchError(domain.ErrParse, i.cfg.Key, err))
		return TestResult{Success: false, Error: err.Error()}
	}

	i.mu.Lock()
	i.state.Capabilities = health.Capabilities
	i.mu.Unlock()
	i.markSuccess()
	return TestResult{Success: true, Capabilities: health.Capabilities, Version: health.Version}
}

// Search runs one search against this indexer. If the circuit is
// open it returns immediately with no I/O. Failures never propagate as
// errors to the caller; they mark the circuit and return an empty slice.
func (i *Indexer) Search(ctx context.Context, query, author, title string, limit, offset int) []domain.Result {
	if !i.Available() {
		return nil
	}

	params := adapter.SearchParams{
		Query:  query,
		Author: author,
		Title:  title,
		Limit:  limit,
		Offset: offset,
		Config: i.cfg,
	}

	if ms, ok := i.adapter.(adapter.MultiStepSearcher); ok {
		return i.searchMultiStep(ctx, ms, params)
	}

	spec := i.adapter.BuildSearchRequest(params)
	payload, err := i.do(ctx, spec)
	if err != nil {
		i.markFailure(err)
		i.logger.Warn("indexer search failed", slog.String("indexer", i.cfg.Key), slog.String("error", err.Error()))
		return nil
	}

	results, err := i.adapter.ParseSearchResults(payload)
	if err != nil {
		i.markFailure(domain.NewSearchError(domain.ErrParse, i.cfg.Key, err))
		i.logger.Warn("indexer parse failed", slog.String("indexer", i.cfg.Key), slog.String("error", err.Error()))
		return nil
	}

	i.markSuccess()
	results = i.enforceCategories(results)
	enricher, _ := i.adapter.(adapter.InfoHashEnricher)
	for idx := range results {
		results[idx].IndexerName = i.cfg.Name
		results[idx].IndexerID = i.cfg.Key
		i.resolveResultURLs(&results[idx])
		if enricher != nil {
			i.enrichInfoHash(ctx, enricher, &results[idx])
		}
	}
	return results
}

// enforceCategories applies the post-search category allow list. The
// adapter already sends provider-side filter params; this is the indexer's
// half of the split: results that announce a main category outside the
// configured set are dropped. Torznab-style config codes map onto MAM main
// categories (3xxx audio -> 13, 7xxx ebook -> 14) before comparison.
// Results that don't announce a main category pass through untouched.
func (i *Indexer) enforceCategories(results []domain.Result) []domain.Result {
	allowed := allowedMainCats(i.cfg.Categories)
	if len(allowed) == 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		mainCat := r.RawAttributes["main_cat"]
		if mainCat == "" {
			out = append(out, r)
			continue
		}
		if _, ok := allowed[mainCat]; ok {
			out = append(out, r)
			continue
		}
		i.logger.Warn("result dropped by category filter",
			slog.String("indexer", i.cfg.Key),
			slog.String("title", r.Title),
			slog.String("main_cat", mainCat))
	}
	return out
}

// allowedMainCats maps configured category codes to the main-category
// values direct-site results announce: 13/14 pass through, Torznab 3xxx
// audio codes become 13, 7xxx ebook codes become 14. Codes outside those
// ranges contribute nothing to the allow list.
func allowedMainCats(categories []string) map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, c := range categories {
		c = strings.TrimSpace(c)
		switch {
		case c == "13" || c == "14":
			allowed[c] = struct{}{}
		case strings.HasPrefix(c, "3") && len(c) == 4:
			allowed["13"] = struct{}{}
		case strings.HasPrefix(c, "7") && len(c) == 4:
			allowed["14"] = struct{}{}
		}
	}
	return allowed
}

// resolveResultURLs turns a relative download_url/info_url (e.g. MAM's
// "/tor/download.php?tid=…", built without knowledge of the indexer's base
// URL, since ParseSearchResults has no config access per the pure-adapter
// contract) into an absolute one, so the "download_url is ...
// an HTTP(S) URL" holds regardless of which adapter produced it. Magnet
// URIs and already-absolute URLs pass through unchanged.
func (i *Indexer) resolveResultURLs(r *domain.Result) {
	base, err := url.Parse(i.cfg.BaseURL)
	if err != nil {
		return
	}
	r.DownloadURL = resolveAgainst(base, r.DownloadURL)
	r.InfoURL = resolveAgainst(base, r.InfoURL)
}

func resolveAgainst(base *url.URL, raw string) string {
	if raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// enrichInfoHash fetches a result's `.torrent` download URL and asks the
// adapter to extract the info hash from it, for results whose feed entry
// carried a torrent URL but no infohash attr or magnet. Best-effort: a
// failure here is logged and otherwise ignored, since the result's
// download_url is already usable without the hash.
func (i *Indexer) enrichInfoHash(ctx context.Context, enricher adapter.InfoHashEnricher, r *domain.Result) {
	if r.InfoHash != "" || r.Protocol != domain.ProtocolTorrent {
		return
	}
	if !common.IsTorrentURL(r.DownloadURL) {
		return
	}

	var payload []byte
	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		var doErr error
		payload, doErr = i.do(ctx, adapter.RequestSpec{Method: http.MethodGet, AbsoluteURL: r.DownloadURL})
		return doErr
	})
	if err != nil {
		i.logger.Warn("infohash prefetch failed", slog.String("indexer", i.cfg.Key), slog.String("url", r.DownloadURL), slog.String("error", err.Error()))
		return
	}

	hash, err := enricher.ExtractInfoHash(payload)
	if err != nil {
		i.logger.Warn("infohash extraction failed", slog.String("indexer", i.cfg.Key), slog.String("url", r.DownloadURL), slog.String("error", err.Error()))
		return
	}
	r.InfoHash = hash
	if r.MagnetURI == "" {
		r.MagnetURI = common.BuildMagnet(hash, r.Title, common.DefaultPublicTrackers)
	}
}

// searchMultiStep drives the search-page -> detail-page sequence for
// adapters like AudiobookBay that can't produce results from a single
// request/response round trip. A failure fetching a search page
// marks the circuit and aborts; a failure fetching one detail page is
// logged and skipped, since the other detail pages may still be good.
func (i *Indexer) searchMultiStep(ctx context.Context, ms adapter.MultiStepSearcher, params adapter.SearchParams) []domain.Result {
	seen := make(map[string]struct{})
	var detailURLs []string

	pages := ms.SearchPageCount()
	if pages < 1 {
		pages = 1
	}
	for page := 1; page <= pages; page++ {
		spec := ms.BuildSearchPageRequest(params, page)
		payload, err := i.do(ctx, spec)
		if err != nil {
			i.markFailure(err)
			i.logger.Warn("indexer search page failed", slog.String("indexer", i.cfg.Key), slog.Int("page", page), slog.String("error", err.Error()))
			return nil
		}
		urls, err := ms.ParseSearchPage(payload)
		if err != nil {
			i.markFailure(domain.NewSearchError(domain.ErrParse, i.cfg.Key, err))
			i.logger.Warn("indexer search page parse failed", slog.String("indexer", i.cfg.Key), slog.Int("page", page), slog.String("error", err.Error()))
			return nil
		}
		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			detailURLs = append(detailURLs, u)
		}
	}

	var results []domain.Result
	for _, detailURL := range detailURLs {
		spec := ms.BuildDetailRequest(detailURL)
		payload, err := i.do(ctx, spec)
		if err != nil {
			i.logger.Warn("indexer detail page failed", slog.String("indexer", i.cfg.Key), slog.String("url", detailURL), slog.String("error", err.Error()))
			continue
		}
		result, ok := ms.ParseDetailPage(payload, detailURL)
		if !ok {
			continue
		}
		result.IndexerName = i.cfg.Name
		result.IndexerID = i.cfg.Key
		i.resolveResultURLs(&result)
		results = append(results, result)
	}

	i.markSuccess()
	return results
}

// do executes spec against the provider, honoring the rate limiter and
// concurrency semaphore, and classifying the outcome into the error
// taxonomy on failure. It never holds the indexer's health mutex while
// performing I/O.
func (i *Indexer) do(ctx context.Context, spec adapter.RequestSpec) ([]byte, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return nil, domain.NewSearchError(domain.ErrTimeout, i.cfg.Key, err)
	}
	if err := i.sem.Acquire(ctx, 1); err != nil {
		return nil, domain.NewSearchError(domain.ErrTimeout, i.cfg.Key, err)
	}
	defer i.sem.Release(1)

	req, err := i.buildHTTPRequest(ctx, spec)
	if err != nil {
		return nil, domain.NewSearchError(domain.ErrInvalidConfig, i.cfg.Key, err)
	}

	started := time.Now()
	resp, err := i.client.Do(req)
	metrics.IndexerRequestDuration.WithLabelValues(i.cfg.Key).Observe(time.Since(started).Seconds())
	if err != nil {
		kind := domain.ErrNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.ErrTimeout
		}
		metrics.IndexerRequestsTotal.WithLabelValues(i.cfg.Key, string(kind)).Inc()
		return nil, domain.NewSearchError(kind, i.cfg.Key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues(i.cfg.Key, "read_error").Inc()
		return nil, domain.NewSearchError(domain.ErrNetwork, i.cfg.Key, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.IndexerRequestsTotal.WithLabelValues(i.cfg.Key, "ok").Inc()
		return body, nil
	}
	if spec.AllowMissing {
		metrics.IndexerRequestsTotal.WithLabelValues(i.cfg.Key, "ok_soft").Inc()
		return body, nil
	}

	kind := domain.ErrHTTPStatus(resp.StatusCode)
	metrics.IndexerRequestsTotal.WithLabelValues(i.cfg.Key, string(kind)).Inc()
	return nil, domain.NewSearchError(kind, i.cfg.Key, fmt.Errorf("unexpected status %d", resp.StatusCode))
}

func (i *Indexer) buildHTTPRequest(ctx context.Context, spec adapter.RequestSpec) (*http.Request, error) {
	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	targetURL := spec.AbsoluteURL
	if targetURL == "" {
		base, err := url.Parse(i.cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base_url: %w", err)
		}
		target := *base
		if spec.Path != "" {
			target.Path = strings.TrimRight(target.Path, "/") + spec.Path
		}
		if len(spec.Params) > 0 {
			target.RawQuery = spec.Params.Encode()
		}
		targetURL = target.String()
	}

	var body io.Reader
	contentType := ""
	switch {
	case spec.JSONBody != nil:
		encoded, marshalErr := json.Marshal(spec.JSONBody)
		if marshalErr != nil {
			return nil, fmt.Errorf("encode json body: %w", marshalErr)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case spec.Form != nil:
		body = strings.NewReader(spec.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	if i.cfg.SessionID != "" {
		req.Header.Set("Authorization", "Bearer "+i.cfg.SessionID)
		for _, name := range []string{"mam_id", "session", "session_id"} {
			req.AddCookie(&http.Cookie{Name: name, Value: i.cfg.SessionID})
		}
	}

	return req, nil
}

// markFailure increments the failure counter and opens the circuit at the
// threshold. Each call emits one warning: "indexer circuit opened" on the
// transition to unavailable, "indexer request failed" otherwise.
func (i *Indexer) markFailure(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.state.ConsecutiveFailures++
	i.state.LastError = err.Error()
	wasAvailable := i.state.Available
	if i.state.ConsecutiveFailures >= failureThreshold {
		i.state.Available = false
	}
	tripped := wasAvailable && !i.state.Available
	metrics.IndexerAvailable.WithLabelValues(i.cfg.Key).Set(boolToFloat(i.state.Available))

	if tripped {
		i.logger.Warn("indexer circuit opened",
			slog.String("indexer", i.cfg.Key),
			slog.Int("consecutive_failures", i.state.ConsecutiveFailures),
			slog.String("error", i.state.LastError))
	} else {
		i.logger.Warn("indexer request failed",
			slog.String("indexer", i.cfg.Key),
			slog.Int("consecutive_failures", i.state.ConsecutiveFailures),
			slog.String("error", i.state.LastError))
	}
}

// markSuccess resets the failure counter and closes the circuit again;
// recovery only ever happens through an explicit successful probe.
func (i *Indexer) markSuccess() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.ConsecutiveFailures = 0
	i.state.LastError = ""
	i.state.LastSuccess = time.Now()
	i.state.Available = true
	metrics.IndexerAvailable.WithLabelValues(i.cfg.Key).Set(1)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
