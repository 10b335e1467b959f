package fuzzy

import "strings"

// Algorithm names the strategy that produced a MatchResult.
type Algorithm string

const (
	AlgoExact     Algorithm = "exact"
	AlgoNormExact Algorithm = "normalized_exact"
	AlgoTokenSet  Algorithm = "token_set"
	AlgoBitap     Algorithm = "bitap"
	AlgoEmpty     Algorithm = "empty_input"
)

// MatchResult is the outcome of Match: a 0..1 score plus which strategy
// produced it and supporting metadata.
type MatchResult struct {
	Score           float64
	Matched         bool
	Exact           bool
	WordBoundary    bool
	Algorithm       Algorithm
	NormalizedMatch bool
	TokenOverlap    float64
}

const (
	tokenSetThreshold   = 0.7
	bitapMatchThreshold = 0.6
	wordBoundaryBonus   = 0.2
	wordBoundaryRatio   = 0.5
)

// Match compares a and b using, in order: case-insensitive exact equality,
// equality after NormalizeTitle, Jaccard token-set overlap >= 0.7, and
// finally a Bitap-style bounded edit-distance window scan. The first
// strategy that produces a confident signal wins.
func Match(a, b string) MatchResult {
	if a == "" || b == "" {
		return MatchResult{Algorithm: AlgoEmpty}
	}

	clean1 := strings.ToLower(strings.TrimSpace(a))
	clean2 := strings.ToLower(strings.TrimSpace(b))
	if clean1 == clean2 {
		return MatchResult{Score: 1.0, Matched: true, Exact: true, WordBoundary: true, Algorithm: AlgoExact}
	}

	norm1 := NormalizeTitle(a)
	norm2 := NormalizeTitle(b)
	if norm1 == norm2 && norm1 != "" {
		return MatchResult{Score: 1.0, Matched: true, WordBoundary: true, Algorithm: AlgoNormExact, NormalizedMatch: true}
	}

	tokens1 := Tokenize(norm1)
	tokens2 := Tokenize(norm2)
	overlap := TokenSetOverlap(tokens1, tokens2)
	if len(tokens1) > 0 && len(tokens2) > 0 && overlap >= tokenSetThreshold {
		return MatchResult{Score: overlap, Matched: true, WordBoundary: true, Algorithm: AlgoTokenSet, TokenOverlap: overlap}
	}

	bitapScore := bitapSearch(norm1, norm2)
	wordBoundary := wordBoundaryMatch(tokens1, tokens2)
	finalScore := bitapScore
	if wordBoundary {
		finalScore = min1(finalScore + wordBoundaryBonus)
	}

	return MatchResult{
		Score:        finalScore,
		Matched:      finalScore >= bitapMatchThreshold,
		WordBoundary: wordBoundary,
		Algorithm:    AlgoBitap,
		TokenOverlap: overlap,
	}
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func wordBoundaryMatch(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	overlap := TokenSetOverlap(a, b)
	return overlap >= wordBoundaryRatio
}

// bitapSearch implements the sliding-window Levenshtein scan: the shorter
// string is treated as the pattern, slid across every equal-length
// substring of the longer string, and the best 1 - distance/maxlen score
// wins. A direct substring hit short-circuits to a length-ratio score.
func bitapSearch(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	pattern, text := s1, s2
	if len(pattern) > len(text) {
		pattern, text = text, pattern
	}
	if pattern == text {
		return 1.0
	}
	if strings.Contains(text, pattern) {
		return float64(len(pattern)) / float64(len(text))
	}

	patternRunes := []rune(pattern)
	textRunes := []rune(text)
	pLen := len(patternRunes)
	tLen := len(textRunes)
	if pLen == 0 || tLen < pLen {
		return 0
	}

	best := 0.0
	for i := 0; i+pLen <= tLen; i++ {
		window := textRunes[i : i+pLen]
		distance := levenshtein(patternRunes, window)
		maxLen := pLen
		if len(window) > maxLen {
			maxLen = len(window)
		}
		score := 1.0 - float64(distance)/float64(maxLen)
		if score > best {
			best = score
		}
	}
	return best
}

// levenshtein computes the classic edit distance between two rune slices.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	previous := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	current := make([]int, len(b)+1)
	for i, ca := range a {
		current[0] = i + 1
		for j, cb := range b {
			insertion := previous[j+1] + 1
			deletion := current[j] + 1
			substitution := previous[j]
			if ca != cb {
				substitution++
			}
			current[j+1] = minInt(insertion, deletion, substitution)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
