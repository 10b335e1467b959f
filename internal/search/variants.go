package search

import (
	"regexp"
	"strconv"
	"strings"
)

// bareSeriesPattern matches "<name> N" or "<name> Book N" and yields the
// comma-book rendering as an additional variant.
var bareSeriesPattern = regexp.MustCompile(`(?i)^(.+?)\s+(?:book\s+)?(\d+)$`)

// commaBookPattern matches "<name>, Book N" and yields the bare rendering
// as an additional variant.
var commaBookPattern = regexp.MustCompile(`(?i)^(.+?),\s*book\s+(\d+)$`)

// BuildVariantTitles derives the normalized query's variant list from a raw
// title: subtitle stripping at the first colon, plus "Series N"
// extractions, deduped preserving order with the canonical (original,
// trimmed) title always first.
func BuildVariantTitles(title string) []string {
	canonical := strings.TrimSpace(title)
	if canonical == "" {
		return nil
	}

	variants := []string{canonical}
	seen := map[string]struct{}{strings.ToLower(canonical): {}}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	if idx := strings.Index(canonical, ":"); idx > 0 {
		add(canonical[:idx])
	}

	if m := commaBookPattern.FindStringSubmatch(canonical); m != nil {
		if name, number := strings.TrimSpace(m[1]), m[2]; name != "" && isNumber(number) {
			add(name + " " + number)
		}
	} else if m := bareSeriesPattern.FindStringSubmatch(canonical); m != nil {
		if name, number := strings.TrimSpace(m[1]), m[2]; name != "" && isNumber(number) {
			add(name + ", Book " + number)
		}
	}

	return variants
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
