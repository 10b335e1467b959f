// Package common holds small wire-format helpers shared by every provider
// adapter: magnet URI construction, human-readable size parsing, and HTML
// text cleanup.
package common

import (
	"net/url"
	"strings"
)

// NormalizeInfoHash lowercases an info hash and strips a "urn:btih:" prefix
// if present, e.g. from a magnet's xt= parameter.
func NormalizeInfoHash(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(strings.ToLower(value), "urn:btih:")
	return value
}

// BuildMagnet constructs a magnet URI from an info hash, display name, and
// tracker list. Returns "" if infoHash doesn't normalize to anything; a
// magnet without a hash is not a usable download URL.
func BuildMagnet(infoHash, name string, trackers []string) string {
	hash := NormalizeInfoHash(infoHash)
	if hash == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(hash)
	if strings.TrimSpace(name) != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(strings.TrimSpace(name)))
	}
	for _, tracker := range trackers {
		value := strings.TrimSpace(tracker)
		if value == "" {
			continue
		}
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// DefaultPublicTrackers is appended to a magnet built from a bare info hash
// when the provider didn't supply any trackers of its own (Torznab items
// that only expose an `infohash` torznab:attr).
var DefaultPublicTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.tracker.cl:1337/announce",
	"udp://tracker.openbittorrent.com:6969/announce",
}

// IsTorrentURL reports whether a URL looks like a .torrent download link
// by path suffix (content-type is checked separately by the indexer when
// available).
func IsTorrentURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".torrent")
}
