package genericjson

import (
	"testing"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/domain"
)

func TestParseSearchResultsBasic(t *testing.T) {
	payload := []byte(`{
		"results": [
			{
				"title": "Mark of the Fool 8",
				"author": "J.M. Clarke",
				"format": "m4b",
				"bitrate_kbps": 128,
				"size_bytes": 900000000,
				"seeders": 12,
				"download_url": "https://example.com/file.torrent"
			}
		]
	}`)

	results, err := Adapter{}.ParseSearchResults(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Title != "Mark of the Fool 8" || r.Author != "J.M. Clarke" {
		t.Fatalf("unexpected fields: %+v", r)
	}
	if r.Format != domain.FormatM4B {
		t.Fatalf("expected m4b format, got %q", r.Format)
	}
	if r.Protocol != domain.ProtocolTorrent {
		t.Fatalf("expected torrent protocol for .torrent download_url")
	}
	if r.Seeders != 12 {
		t.Fatalf("expected seeders=12, got %d", r.Seeders)
	}
}

func TestParseSearchResultsDropsItemsWithoutDownloadURL(t *testing.T) {
	payload := []byte(`{"results": [{"title": "No Link"}]}`)
	results, err := Adapter{}.ParseSearchResults(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected item without download_url to be dropped, got %d", len(results))
	}
}

func TestParseSearchResultsMissingSeedersIsUnknown(t *testing.T) {
	payload := []byte(`{"results": [{"title": "X", "download_url": "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}]}`)
	results, err := Adapter{}.ParseSearchResults(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result")
	}
	if results[0].Seeders != -1 {
		t.Fatalf("expected unknown seeders (-1), got %d", results[0].Seeders)
	}
	if results[0].Protocol != domain.ProtocolTorrent {
		t.Fatalf("expected magnet download_url to be classified as torrent protocol")
	}
}

func TestParseSearchResultsInvalidJSON(t *testing.T) {
	if _, err := (Adapter{}.ParseSearchResults([]byte("not json"))); err == nil {
		t.Fatalf("expected error for invalid JSON envelope")
	}
}

func TestBuildSearchRequestFallsBackToTitleAuthor(t *testing.T) {
	spec := Adapter{}.BuildSearchRequest(adapter.SearchParams{Title: "Foo", Author: "Bar"})
	if spec.Params.Get("q") != "Foo Bar" {
		t.Fatalf("unexpected q param: %q", spec.Params.Get("q"))
	}
}
