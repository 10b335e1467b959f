// Package fuzzy provides the text-matching primitives the quality assessor
// builds on: author/title normalization, tokenization, Jaccard token-set
// overlap, and a Bitap-style bounded edit-distance fallback matcher.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketsPattern = regexp.MustCompile(`[\[(][^\])]*[\])]`)
	dashPattern     = regexp.MustCompile(`\s*[-–—]\s*.*$`)
	articlePattern  = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	punctPattern    = regexp.MustCompile(`[^\w\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
	digitToken      = regexp.MustCompile(`\b\d+\b`)
)

// foldDiacritics strips combining marks after NFKD decomposition, so
// "Alexandré" and "Alexandre" collapse to the same ASCII-ish form.
func foldDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeAuthor lowercases and strips every non-alphanumeric character
// (including spaces), so "Smith, John" and "SmithJohn" both collapse to
// "smithjohn". Idempotent: NormalizeAuthor(NormalizeAuthor(s)) == NormalizeAuthor(s).
func NormalizeAuthor(s string) string {
	if s == "" {
		return ""
	}
	folded := foldDiacritics(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTitle lowercases, drops bracketed/parenthesized spans and
// anything after a dash, strips a leading article, collapses punctuation to
// spaces, and trims whitespace. Spaces are preserved for tokenization.
// Idempotent like NormalizeAuthor.
func NormalizeTitle(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.ToLower(s)
	cleaned = bracketsPattern.ReplaceAllString(cleaned, "")
	cleaned = dashPattern.ReplaceAllString(cleaned, "")
	cleaned = articlePattern.ReplaceAllString(cleaned, "")
	cleaned = punctPattern.ReplaceAllString(cleaned, " ")
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Tokenize splits s into a set of non-empty lowercase tokens on whitespace.
func Tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if s == "" {
		return tokens
	}
	for _, field := range strings.Fields(strings.ToLower(s)) {
		if field != "" {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}

// TokenSetOverlap returns the Jaccard similarity |A∩B| / |A∪B|.
func TokenSetOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// DigitTokens extracts the set of standalone integer tokens appearing in a
// raw (un-normalized) title, used for the book-number alignment rule.
func DigitTokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range digitToken.FindAllString(s, -1) {
		out[m] = struct{}{}
	}
	return out
}

// IsSubstring reports whether a is a non-empty substring of b or vice versa.
func IsSubstring(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
