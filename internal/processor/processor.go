// Package processor is the result processor. It takes
// quality-scored results (already best-first, per the assessor's sort) and
// applies the basic shape check, deduplication, and per-mode shaping
// for manual and automatic selection.
package processor

import (
	"time"

	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
)

// manualResultCap is the maximum number of results returned in manual mode.
const manualResultCap = 20

// Dedupe removes duplicate results, keeping only the first occurrence.
// Two results are duplicates if they share a non-empty download_url, a
// non-empty info_hash, or the pair (indexer_name, title).
// Preserves input order, which matters for variant-query tie-breaking
// (ties between equal scores are broken by insertion order).
func Dedupe(results []domain.Result) []domain.Result {
	seenURL := make(map[string]struct{}, len(results))
	seenHash := make(map[string]struct{}, len(results))
	seenIndexerTitle := make(map[string]struct{}, len(results))

	out := make([]domain.Result, 0, len(results))
	for _, r := range results {
		dup := false
		if r.DownloadURL != "" {
			if _, ok := seenURL[r.DownloadURL]; ok {
				dup = true
			}
		}
		if r.InfoHash != "" {
			if _, ok := seenHash[r.InfoHash]; ok {
				dup = true
			}
		}
		itKey := r.IndexerName + "\x00" + r.Title
		if _, ok := seenIndexerTitle[itKey]; ok {
			dup = true
		}

		// A dropped duplicate still records its keys, so a later result that
		// matches it on another key is dropped as well.
		if r.DownloadURL != "" {
			seenURL[r.DownloadURL] = struct{}{}
		}
		if r.InfoHash != "" {
			seenHash[r.InfoHash] = struct{}{}
		}
		seenIndexerTitle[itKey] = struct{}{}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// acceptable reports whether r passes the basic shape check: non-empty
// title, author, and download_url.
func acceptable(r domain.Result) bool {
	return r.Title != "" && r.Author != "" && r.DownloadURL != ""
}

// FilterAccepted drops scored results that fail the basic shape check,
// preserving order.
func FilterAccepted(scored []domain.ScoredResult) []domain.ScoredResult {
	out := make([]domain.ScoredResult, 0, len(scored))
	for _, s := range scored {
		if acceptable(s.Result) {
			out = append(out, s)
		}
	}
	return out
}

// BuildManual shapes accepted, quality-scored results for manual selection:
// capped at manualResultCap, with 1-based ordinals and human-readable
// sizes.
func BuildManual(scored []domain.ScoredResult) []domain.DisplayResult {
	accepted := FilterAccepted(scored)
	if len(accepted) > manualResultCap {
		accepted = accepted[:manualResultCap]
	}
	out := make([]domain.DisplayResult, len(accepted))
	for i, s := range accepted {
		out[i] = domain.DisplayResult{
			ID:        i + 1,
			Result:    s.Result,
			HumanSize: common.HumanSize(s.Result.SizeBytes),
			Quality:   s.Quality,
		}
	}
	return out
}

// BuildAutomatic returns the single best accepted result, already the
// top-ranked entry of the input (the assessor sorted it), wrapped for the
// automatic-selection wrapper. Returns nil when no accepted result
// exists.
func BuildAutomatic(bookID string, scored []domain.ScoredResult, now time.Time) *domain.AutomaticSelection {
	accepted := FilterAccepted(scored)
	if len(accepted) == 0 {
		return nil
	}
	best := accepted[0]
	return &domain.AutomaticSelection{
		BookID:             bookID,
		SelectedResult:     best.Result,
		SelectionTimestamp: now,
		ConfidenceScore:    best.Quality.Confidence,
	}
}
