package scoring

import (
	"regexp"
	"strings"
)

// SeriesInfo is what ExtractSeries found in a raw (un-normalized) title.
type SeriesInfo struct {
	Name       string
	BookNumber string
	FullSpan   string // the matched substring, for stripping it out of the core title
}

var (
	seriesCommaBook     = regexp.MustCompile(`(?i)(?:^|[:\s])([^,:]+),\s*(?:Book|#)\s*(\d+)`)
	seriesParenHash     = regexp.MustCompile(`[(\[]([^)\]]+?)\s*[#\s](\d+)[)\]]`)
	seriesLeading       = regexp.MustCompile(`^([^:]+):\s*(.+)`)
	seriesWordHints     = []string{"series", "saga", "chronicles", "trilogy"}
	seriesJustBook      = regexp.MustCompile(`(?i),\s*(?:Book|#)\s*(\d+)`)
	seriesTrailingNo    = regexp.MustCompile(`(?i)^(.+?)\s+(?:Book\s+)?(\d+)$`)
	qualityBracketToken = regexp.MustCompile(`(?i)\[[^\]]*\b(?:m4b|m4a|mp3|flac|aac|ogg|kbps)\b[^\]]*\]`)
)

// stripQualityBrackets removes bracketed audio-quality tags ("[M4B 128]",
// "[128 kbps]") before series detection runs, so a tag that happens to
// contain a trailing number isn't mistaken for a "(<series> #<n>)" or bare
// "Name <n>" series span (these tags appear in raw provider titles
// alongside, not as part of, any real series/book-number expression).
func stripQualityBrackets(title string) string {
	return strings.TrimSpace(qualityBracketToken.ReplaceAllString(title, ""))
}

// ExtractSeries detects a series name / book number span in a title using
// a pattern cascade: "<series>, Book <n>", "(<series> #<n>)",
// "<series>: <title>" (only when the prefix reads like a series label),
// ", Book <n>" alone, and finally a bare trailing number ("Name 8").
func ExtractSeries(rawTitle string) SeriesInfo {
	title := stripQualityBrackets(rawTitle)
	if title == "" {
		return SeriesInfo{}
	}

	if m := seriesCommaBook.FindStringSubmatch(title); m != nil {
		return SeriesInfo{
			Name:       strings.TrimSpace(m[1]),
			BookNumber: m[2],
			FullSpan:   strings.Trim(m[0], ":, "),
		}
	}

	if m := seriesParenHash.FindStringSubmatch(title); m != nil {
		return SeriesInfo{
			Name:       strings.TrimSpace(m[1]),
			BookNumber: m[2],
			FullSpan:   m[0],
		}
	}

	if m := seriesLeading.FindStringSubmatch(title); m != nil {
		prefix := strings.TrimSpace(m[1])
		lower := strings.ToLower(prefix)
		for _, hint := range seriesWordHints {
			if strings.Contains(lower, hint) {
				return SeriesInfo{Name: prefix, FullSpan: prefix + ":"}
			}
		}
	}

	if m := seriesJustBook.FindStringSubmatch(title); m != nil {
		return SeriesInfo{BookNumber: m[1], FullSpan: strings.Trim(m[0], ", ")}
	}

	if m := seriesTrailingNo.FindStringSubmatch(title); m != nil {
		// A single leading word before a number is more likely a title than
		// a series name; only treat multi-word prefixes as a series span.
		name := strings.TrimSpace(m[1])
		if strings.Contains(name, " ") {
			return SeriesInfo{Name: name, BookNumber: m[2], FullSpan: m[0]}
		}
	}

	return SeriesInfo{}
}

// StripSeriesSpan removes a previously-detected series span from a
// normalized title, used before computing the title sub-score.
func StripSeriesSpan(normalizedTitle, fullSpan string) string {
	if fullSpan == "" {
		return normalizedTitle
	}
	stripped := strings.ReplaceAll(normalizedTitle, strings.ToLower(fullSpan), "")
	return strings.Trim(stripped, " ,:;-")
}
