package scoring

import (
	"sort"

	"shelfsearch/audiosearch/internal/domain"
)

// Weights for the total score: relevance dominates by design.
const (
	weightRelevance = 0.95
	weightFormat    = 0.03
	weightMetadata  = 0.02
)

// Assessor scores results against a search query. It holds no state; it is
// safe for concurrent use by any number of callers.
type Assessor struct{}

// NewAssessor constructs a quality assessor.
func NewAssessor() *Assessor {
	return &Assessor{}
}

// Score produces a QualityScore for one result against the original
// (non-variant) search title/author.
func (a *Assessor) Score(searchTitle, searchAuthor string, result domain.Result) domain.QualityScore {
	relevance, breakdown := Relevance(searchTitle, searchAuthor, result)
	format := formatScore(result.Format)
	bitrate := bitrateScore(result.BitrateKbps)
	metadata := metadataScore(result)
	availability := availabilityScore(result)

	total := relevance*weightRelevance + format*weightFormat + metadata*weightMetadata
	total = clampMax(total, 10)

	confidence := computeConfidence(total, format, bitrate, metadata, availability, breakdown)

	return domain.QualityScore{
		Relevance:    relevance,
		Format:       format,
		Bitrate:      bitrate,
		Source:       0,
		Metadata:     metadata,
		Availability: availability,
		Total:        total,
		Confidence:   confidence,
		Breakdown:    breakdown,
	}
}

// computeConfidence derives confidence from a base of
// total*10 adjusted by the raw component signals and the relevance
// breakdown's match statuses, clamped to [0,100].
func computeConfidence(total, format, bitrate, metadata, availability float64, breakdown domain.RelevanceBreakdown) float64 {
	confidence := total * 10

	switch {
	case format < 5:
		confidence -= 15
	case format < 7:
		confidence -= 5
	}

	switch {
	case bitrate == 0:
		confidence -= 10
	case bitrate < 3:
		confidence -= 10
	case bitrate < 6:
		confidence -= 5
	}

	switch {
	case metadata < 5:
		confidence -= 10
	case metadata < 8:
		confidence -= 5
	}

	switch {
	case availability == 0:
		confidence -= 20
	case availability < 4:
		confidence -= 10
	case availability < 6:
		confidence -= 5
	}

	if format >= 9 {
		confidence += 5
	}
	if bitrate >= 9 {
		confidence += 3
	}
	if metadata >= 9 {
		confidence += 2
	}
	if availability >= 9 {
		confidence += 5
	}

	switch breakdown.BookNumberStatus {
	case domain.StatusMismatch:
		confidence -= 45
	case domain.StatusResultMissing:
		confidence -= 20
	case domain.StatusMatch:
		confidence += 5
	}

	if breakdown.Title.Status == domain.StatusNoMatch {
		confidence -= 35
	} else if breakdown.Title.Status == domain.StatusMatch && breakdown.Title.Score >= 2.0 {
		confidence += 5
	}

	if breakdown.Series.Status == domain.StatusNoMatch {
		confidence -= 15
	} else if breakdown.Series.Status == domain.StatusMatch && breakdown.Series.Score >= 1.2 {
		confidence += 5
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// RankByQuality scores every result against (title, author) and returns
// them sorted by total descending, ties broken by original (insertion)
// order so equal totals keep their insertion order.
func (a *Assessor) RankByQuality(results []domain.Result, title, author string) []domain.ScoredResult {
	scored := make([]domain.ScoredResult, len(results))
	for i, r := range results {
		scored[i] = domain.ScoredResult{Result: r, Quality: a.Score(title, author, r)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Quality.Total > scored[j].Quality.Total
	})
	return scored
}
