// Package search implements the search engine facade. It generates
// title variants, fans each one out through the indexer manager, dedupes
// and scores the merged results against the original (non-variant) query,
// shapes the output per mode, and keeps a bounded in-memory history of
// recent outcomes.
package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shelfsearch/audiosearch/internal/domain"
	"shelfsearch/audiosearch/internal/metrics"
	"shelfsearch/audiosearch/internal/processor"
	"shelfsearch/audiosearch/internal/scoring"
)

// IndexerManager is the subset of *manager.Manager the facade depends on,
// kept as an interface so the facade can be tested with a stub and so
// internal/search never imports internal/manager directly.
type IndexerManager interface {
	Search(ctx context.Context, query, author, title string, limitPerIndexer int, parallel bool) []domain.Result
	Status() domain.ServiceStatus
}

// Engine is the search engine facade.
type Engine struct {
	manager  IndexerManager
	assessor *scoring.Assessor
	logger   *slog.Logger
	history  *history
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHistorySize overrides the default history ring capacity (N=50).
func WithHistorySize(n int) Option {
	return func(e *Engine) { e.history = newHistory(n) }
}

// New builds a search engine facade around an indexer manager.
func New(mgr IndexerManager, opts ...Option) *Engine {
	e := &Engine{
		manager:  mgr,
		assessor: scoring.NewAssessor(),
		logger:   slog.Default(),
		history:  newHistory(defaultHistorySize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrEmptyQuery is a caller error: a query with
// neither title nor author is never dispatched to the indexers.
var ErrEmptyQuery = errors.New("search: title and author are both empty")

// SearchForAudiobook runs one federated search: it generates
// variant titles, fans each one out, dedupes across variants, scores
// against the original title/author, shapes per mode, and records the
// outcome in history.
func (e *Engine) SearchForAudiobook(ctx context.Context, query domain.SearchQuery) domain.SearchOutcome {
	started := time.Now()
	now := time.Now()

	title := query.Title
	author := query.Author
	if title == "" && author == "" {
		e.logger.Error("search rejected: empty query", slog.String("mode", string(query.Mode)))
		return domain.SearchOutcome{
			Success:   false,
			Error:     ErrEmptyQuery.Error(),
			Query:     query,
			Timestamp: now,
		}
	}

	variants := BuildVariantTitles(title)
	if len(variants) == 0 {
		variants = []string{""}
	}

	var merged []domain.Result
	for _, variant := range variants {
		batch := e.manager.Search(ctx, variant, author, variant, 100, true)
		for i := range batch {
			batch[i].SearchQueryUsed = variant
		}
		merged = append(merged, batch...)
	}

	deduped := processor.Dedupe(merged)
	scored := e.assessor.RankByQuality(deduped, title, author)

	var display []domain.DisplayResult
	var automatic *domain.AutomaticSelection
	switch query.Mode {
	case domain.ModeAutomatic:
		automatic = processor.BuildAutomatic(canonicalBookID(title, author), scored, now)
	default:
		display = processor.BuildManual(scored)
	}

	status := e.manager.Status()
	elapsed := time.Since(started)

	outcome := domain.SearchOutcome{
		Success:          true,
		Query:            query,
		Results:          display,
		Automatic:        automatic,
		ResultCount:      len(deduped),
		SearchTimeS:      elapsed.Seconds(),
		IndexersSearched: status.Total,
		Timestamp:        now,
	}

	metrics.SearchDuration.WithLabelValues(string(query.Mode)).Observe(elapsed.Seconds())
	metrics.SearchResultsTotal.WithLabelValues(string(query.Mode)).Observe(float64(outcome.ResultCount))

	e.history.record(outcome)
	return outcome
}

// canonicalBookID is a stable, content-derived identifier for the automatic
// selection wrapper; the actual book/author database lives outside the
// core, so the facade can only hand back the query it was given.
func canonicalBookID(title, author string) string {
	if title != "" {
		return title
	}
	return author
}

// TestSearchFunctionality runs two canned queries and returns their result
// counts alongside indexer status.
func (e *Engine) TestSearchFunctionality(ctx context.Context) map[string]any {
	canned := []domain.SearchQuery{
		{Title: "Mistborn", Author: "Brandon Sanderson", Mode: domain.ModeManual},
		{Title: "The Way of Kings", Author: "Brandon Sanderson", Mode: domain.ModeManual},
	}

	counts := make(map[string]int, len(canned))
	for _, q := range canned {
		outcome := e.SearchForAudiobook(ctx, q)
		counts[q.Title] = outcome.ResultCount
	}

	return map[string]any{
		"result_counts": counts,
		"status":        e.manager.Status(),
	}
}

// GetServiceStatus exposes the manager's aggregate status plus recent
// search history.
func (e *Engine) GetServiceStatus() map[string]any {
	return map[string]any{
		"status":  e.manager.Status(),
		"history": e.history.recent(),
	}
}

// Reset clears the in-memory search history without touching indexer
// health state (that lives on the manager and its indexers, not here).
func (e *Engine) Reset() {
	e.history.reset()
}

// Shutdown is a no-op placeholder for symmetry with the facade's
// construction-time setup; the engine holds no resources of its own that
// need releasing (indexers own their own HTTP clients).
func (e *Engine) Shutdown(context.Context) error {
	return nil
}

// History returns a copy of the recorded outcomes, oldest first.
func (e *Engine) History() []domain.SearchOutcome {
	return e.history.recent()
}
