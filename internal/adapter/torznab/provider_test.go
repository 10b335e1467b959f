package torznab

import (
	"strings"
	"testing"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/domain"
)

const samplePayload = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <item>
      <title>Mark of the Fool 8 [M4B 128]</title>
      <guid>magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567&amp;dn=Mark+of+the+Fool</guid>
      <pubDate>Fri, 13 Feb 2026 12:00:00 +0000</pubDate>
      <torznab:attr name="seeders" value="123"/>
      <torznab:attr name="peers" value="150"/>
      <torznab:attr name="size" value="1073741824"/>
      <torznab:attr name="infohash" value="0123456789ABCDEF0123456789ABCDEF01234567"/>
      <torznab:attr name="author" value="J. M. Clarke"/>
      <torznab:attr name="tracker" value="audiobooks.example"/>
      <torznab:attr name="indexer" value="audiobooks"/>
    </item>
  </channel>
</rss>`

func TestParseSearchResultsReadsNamespacedAttrs(t *testing.T) {
	results, err := Adapter{}.ParseSearchResults([]byte(samplePayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Title == "" {
		t.Fatalf("expected title")
	}
	if r.Author != "J. M. Clarke" {
		t.Fatalf("unexpected author: %q", r.Author)
	}
	if r.InfoHash != "0123456789abcdef0123456789abcdef01234567" {
		t.Fatalf("unexpected infohash: %q", r.InfoHash)
	}
	if r.Seeders != 123 || r.Peers != 150 {
		t.Fatalf("unexpected seeders/peers: %d/%d", r.Seeders, r.Peers)
	}
	if r.Format != domain.FormatM4B || r.BitrateKbps != 128 {
		t.Fatalf("expected bracketed quality m4b/128, got %s/%d", r.Format, r.BitrateKbps)
	}
}

func TestParseSearchResultsInvalidXML(t *testing.T) {
	if _, err := (Adapter{}).ParseSearchResults([]byte("<rss><channel>")); err == nil {
		t.Fatalf("expected error for truncated XML")
	}
}

func TestParseSearchResultsSkipsItemsWithoutUsableLocator(t *testing.T) {
	payload := `<rss><channel><item><title>No Locator</title></item></channel></rss>`
	results, err := Adapter{}.ParseSearchResults([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected item with no magnet/infohash/download url to be dropped, got %d", len(results))
	}
}

func TestBuildSearchRequestSetsQueryAndCategories(t *testing.T) {
	spec := Adapter{}.BuildSearchRequest(adapter.SearchParams{
		Title:  "Mark of the Fool",
		Author: "J. M. Clarke",
		Limit:  25,
		Config: domain.IndexerConfig{
			APIKey:     "secret",
			Categories: []string{"3030", "3040"},
		},
	})
	if spec.Params.Get("apikey") != "secret" {
		t.Fatalf("expected apikey to be set")
	}
	if spec.Params.Get("cat") != "3030,3040" {
		t.Fatalf("unexpected cat param: %q", spec.Params.Get("cat"))
	}
	if !strings.Contains(spec.Params.Get("q"), "Mark of the Fool") {
		t.Fatalf("expected query to include title: %q", spec.Params.Get("q"))
	}
}

func TestParseHealthResponseReadsCapabilities(t *testing.T) {
	payload := `<caps>
  <server version="1.1"/>
  <searching><search available="yes"/><book-search available="yes"/></searching>
  <categories><category id="3030" name="Audiobooks"/></categories>
</caps>`
	result, err := Adapter{}.ParseHealthResponse([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Capabilities.BookSearch {
		t.Fatalf("expected book search capability")
	}
	if len(result.Capabilities.Categories) != 1 || result.Capabilities.Categories[0] != "Audiobooks" {
		t.Fatalf("unexpected categories: %v", result.Capabilities.Categories)
	}
}

func TestParseSearchResultsPrefersTorrentEnclosureOverLink(t *testing.T) {
	payload := `<rss xmlns:torznab="http://torznab.com/schemas/2015/feed"><channel><item>
	  <title>Some Book</title>
	  <link>https://example.com/details/1</link>
	  <enclosure url="https://example.com/dl/1.torrent" type="application/x-bittorrent" length="1024"/>
	</item></channel></rss>`
	results, err := Adapter{}.ParseSearchResults([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].DownloadURL != "https://example.com/dl/1.torrent" {
		t.Fatalf("expected the torrent enclosure preferred over <link>, got %q", results[0].DownloadURL)
	}
}

func TestParseSearchResultsMissingSwarmStatsAreUnknown(t *testing.T) {
	payload := `<rss xmlns:torznab="http://torznab.com/schemas/2015/feed"><channel><item>
	  <title>Some Book</title>
	  <link>https://example.com/dl/1.torrent</link>
	</item></channel></rss>`
	results, err := Adapter{}.ParseSearchResults([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Seeders != -1 || results[0].Peers != -1 {
		t.Fatalf("expected unknown swarm stats (-1), got %d/%d", results[0].Seeders, results[0].Peers)
	}
}

func TestParseSearchResultsReadsSeriesAttrs(t *testing.T) {
	payload := `<rss xmlns:torznab="http://torznab.com/schemas/2015/feed"><channel><item>
	  <title>Mark of the Fool 8</title>
	  <link>https://example.com/dl/8.torrent</link>
	  <torznab:attr name="series" value="Mark of the Fool"/>
	  <torznab:attr name="booknumber" value="8"/>
	</item></channel></rss>`
	results, err := Adapter{}.ParseSearchResults([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Series != "Mark of the Fool" || results[0].Sequence != "8" {
		t.Fatalf("unexpected series/sequence: %q/%q", results[0].Series, results[0].Sequence)
	}
}
