package common

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanHTMLText strips tags, unescapes entities, and collapses whitespace.
// Used whenever an adapter needs to turn an HTML fragment into plain text
// (descriptions, scraped cell contents).
func CleanHTMLText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

var sizeUnitMultiplier = map[string]float64{
	"B":   1,
	"KB":  1024,
	"KIB": 1024,
	"MB":  1024 * 1024,
	"MIB": 1024 * 1024,
	"GB":  1024 * 1024 * 1024,
	"GIB": 1024 * 1024 * 1024,
	"TB":  1024 * 1024 * 1024 * 1024,
	"TIB": 1024 * 1024 * 1024 * 1024,
}

// ParseHumanSize parses either a raw byte count or a "<num> <unit>" string
// (binary multipliers: KiB/KB=1024, etc.) into a byte count.
func ParseHumanSize(raw string) int64 {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return 0
	}

	unit := ""
	number := value
	for _, suffix := range []string{"TIB", "TB", "GIB", "GB", "MIB", "MB", "KIB", "KB", "B"} {
		if strings.HasSuffix(number, suffix) {
			unit = suffix
			number = strings.TrimSpace(strings.TrimSuffix(number, suffix))
			break
		}
	}
	if unit == "" {
		if parsed, err := strconv.ParseInt(number, 10, 64); err == nil {
			return parsed
		}
		return 0
	}

	parsed, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return int64(parsed * sizeUnitMultiplier[unit])
}

var bracketTokenPattern = regexp.MustCompile(`\[([^\]]+)\]`)
var bitratePattern = regexp.MustCompile(`(?i)(\d{2,4})\s*k(?:bps)?`)
var bareNumberPattern = regexp.MustCompile(`\b(\d{2,4})\b`)
var formatTokens = map[string]string{
	"M4B":  "m4b",
	"M4A":  "m4a",
	"MP3":  "mp3",
	"FLAC": "flac",
	"AAC":  "aac",
	"OGG":  "ogg",
}

// ExtractBracketedQuality scans a title for bracketed tokens like "[M4B]",
// "[128 kbps]", or "[M4B 64]" and returns any format/bitrate it recognizes.
// Used by the Torznab adapter as a fallback when torznab:attr fields don't
// carry format/bitrate explicitly.
func ExtractBracketedQuality(title string) (format string, bitrateKbps int) {
	for _, m := range bracketTokenPattern.FindAllStringSubmatch(title, -1) {
		token := strings.ToUpper(strings.TrimSpace(m[1]))
		hasFormat := false
		for name, normalized := range formatTokens {
			if strings.Contains(token, name) {
				format = normalized
				hasFormat = true
			}
		}
		br := bitratePattern.FindStringSubmatch(token)
		if br == nil && hasFormat {
			// A bare number alongside a format token ("[M4B 64]") is a
			// bitrate; a lone bracketed number without one is more likely
			// a year or a book count, so it only counts when suffixed
			// with k/kbps.
			br = bareNumberPattern.FindStringSubmatch(token)
		}
		if br != nil {
			if v, err := strconv.Atoi(br[1]); err == nil {
				bitrateKbps = v
			}
		}
	}
	return format, bitrateKbps
}

var humanSizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// HumanSize formats a byte count using 1024-based units with one decimal,
// for the result processor's manual-mode display records.
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(humanSizeUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%.0f %s", value, humanSizeUnits[unit])
	}
	return fmt.Sprintf("%.1f %s", value, humanSizeUnits[unit])
}
