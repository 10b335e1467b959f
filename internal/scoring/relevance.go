package scoring

import (
	"shelfsearch/audiosearch/internal/domain"
	"shelfsearch/audiosearch/internal/fuzzy"
)

const (
	authorMax = 6.0
	titleMax  = 2.5
	seriesMax = 1.5

	authorTokenOverlapThreshold = 0.5
	authorFuzzyThreshold        = 0.7
	titleTokenOverlapThreshold  = 0.7
	titleFuzzyThreshold         = 0.7
	bookNumberBonus             = 0.75
)

// authorScore computes the author sub-score (0..6).
func authorScore(searchAuthor, resultAuthor string) domain.SubScore {
	if searchAuthor == "" {
		return domain.SubScore{Score: 3.0, Status: domain.StatusNotApplicable}
	}
	if resultAuthor == "" {
		return domain.SubScore{Score: 0, Status: domain.StatusResultMissing}
	}

	normSearch := fuzzy.NormalizeAuthor(searchAuthor)
	normResult := fuzzy.NormalizeAuthor(resultAuthor)
	if fuzzy.IsSubstring(normSearch, normResult) {
		return domain.SubScore{Score: authorMax, Status: domain.StatusMatch}
	}

	searchTokens := fuzzy.Tokenize(fuzzy.NormalizeTitle(searchAuthor))
	resultTokens := fuzzy.Tokenize(fuzzy.NormalizeTitle(resultAuthor))
	if overlap := fuzzy.TokenSetOverlap(searchTokens, resultTokens); overlap >= authorTokenOverlapThreshold {
		return domain.SubScore{Score: authorMax * overlap, Status: domain.StatusMatch}
	}

	match := fuzzy.Match(searchAuthor, resultAuthor)
	if match.Score >= authorFuzzyThreshold {
		return domain.SubScore{Score: authorMax * match.Score, Status: domain.StatusMatch}
	}
	return domain.SubScore{Score: 0, Status: domain.StatusNoMatch}
}

// titleScore computes the title sub-score (0..2.5) plus the book-number
// alignment rule, which can zero out or boost the base score.
func titleScore(searchTitle, resultTitle string) (domain.SubScore, domain.MatchStatus) {
	if searchTitle == "" {
		return domain.SubScore{Score: titleMax / 2, Status: domain.StatusNotApplicable}, domain.StatusNotApplicable
	}

	searchSeries := ExtractSeries(searchTitle)
	resultSeries := ExtractSeries(resultTitle)
	searchCore := StripSeriesSpan(fuzzy.NormalizeTitle(searchTitle), searchSeries.FullSpan)
	resultCore := StripSeriesSpan(fuzzy.NormalizeTitle(resultTitle), resultSeries.FullSpan)

	searchTokens := fuzzy.Tokenize(searchCore)
	resultTokens := fuzzy.Tokenize(resultCore)

	base := 0.0
	switch {
	case isSubset(searchTokens, resultTokens):
		base = titleMax
	case fuzzy.TokenSetOverlap(searchTokens, resultTokens) >= titleTokenOverlapThreshold:
		base = titleMax * fuzzy.TokenSetOverlap(searchTokens, resultTokens)
	case fuzzy.IsSubstring(searchCore, resultCore):
		base = titleMax
	default:
		if m := fuzzy.Match(searchCore, resultCore); m.Score >= titleFuzzyThreshold {
			base = titleMax * m.Score
		}
	}

	searchDigits := fuzzy.DigitTokens(searchTitle)
	resultDigits := fuzzy.DigitTokens(resultTitle)
	bookStatus := domain.StatusNotApplicable

	switch {
	case len(searchDigits) == 0:
		bookStatus = domain.StatusNotApplicable
	case len(resultDigits) == 0:
		base *= 0.2
		bookStatus = domain.StatusResultMissing
	case shareAny(searchDigits, resultDigits):
		base = clampMax(base+bookNumberBonus, titleMax)
		bookStatus = domain.StatusMatch
	default:
		base = 0
		bookStatus = domain.StatusMismatch
	}

	status := domain.StatusNoMatch
	if base > 0 {
		status = domain.StatusMatch
	}
	if bookStatus == domain.StatusMismatch {
		status = domain.StatusMismatch
	}

	return domain.SubScore{Score: base, Status: status}, bookStatus
}

// seriesScore computes the series sub-score (0..1.5).
func seriesScore(searchTitle, resultTitle string) domain.SubScore {
	searchSeries := ExtractSeries(searchTitle)
	resultSeries := ExtractSeries(resultTitle)

	switch {
	case searchSeries.Name != "" && resultSeries.Name != "":
		match := fuzzy.Match(resultSeries.Name, searchSeries.Name)
		score := 0.0
		switch {
		case match.Exact || match.Score >= 0.8:
			score = 1.5
		case match.Score >= 0.7:
			score = 1.2
		case match.Score >= 0.6:
			score = 0.9
		case match.Score >= 0.5:
			score = 0.6
		}
		if resultSeries.BookNumber != "" && resultSeries.BookNumber == searchSeries.BookNumber {
			score = clampMax(score+0.3, seriesMax)
		}
		status := domain.StatusNoMatch
		if score > 0 {
			status = domain.StatusMatch
		}
		return domain.SubScore{Score: score, Status: status}

	case searchSeries.Name != "" && resultSeries.Name == "":
		return domain.SubScore{Score: 0, Status: domain.StatusNoMatch}

	case resultSeries.Name != "" && containsFold(searchTitle, resultSeries.Name):
		return domain.SubScore{Score: 1.0, Status: domain.StatusMatch}

	default:
		return domain.SubScore{Score: 0.75, Status: domain.StatusNotApplicable}
	}
}

// Relevance computes the full relevance breakdown for a result
// against the original (un-variant-rewritten) search title/author.
func Relevance(searchTitle, searchAuthor string, result domain.Result) (float64, domain.RelevanceBreakdown) {
	author := authorScore(searchAuthor, result.Author)
	title, bookNumberStatus := titleScore(searchTitle, result.Title)
	series := seriesScore(searchTitle, result.Title)

	total := author.Score + title.Score + series.Score
	if total > 10 {
		total = 10
	}

	return total, domain.RelevanceBreakdown{
		BookNumberStatus: bookNumberStatus,
		Author:           author,
		Title:            title,
		Series:           series,
	}
}

func isSubset(a, b map[string]struct{}) bool {
	for token := range a {
		if _, ok := b[token]; !ok {
			return false
		}
	}
	return true
}

func shareAny(a, b map[string]struct{}) bool {
	for token := range a {
		if _, ok := b[token]; ok {
			return true
		}
	}
	return false
}

func clampMax(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return fuzzy.IsSubstring(fuzzy.NormalizeTitle(haystack), fuzzy.NormalizeTitle(needle))
}
