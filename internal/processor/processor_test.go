package processor

import (
	"testing"
	"time"

	"shelfsearch/audiosearch/internal/domain"
)

func TestDedupeByDownloadURLInfoHashAndIndexerTitle(t *testing.T) {
	results := []domain.Result{
		{IndexerName: "a", Title: "Book 1", DownloadURL: "magnet:1"},
		{IndexerName: "b", Title: "Book 1", DownloadURL: "magnet:1"},                 // same URL
		{IndexerName: "a", Title: "Book 1", DownloadURL: "magnet:2", InfoHash: "h1"},  // same (indexer,title)
		{IndexerName: "c", Title: "Book 2", DownloadURL: "magnet:3", InfoHash: "h1"},  // same infohash
		{IndexerName: "d", Title: "Book 3", DownloadURL: "magnet:4", InfoHash: "h2"},  // unique
	}
	out := Dedupe(results)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique results, got %d: %+v", len(out), out)
	}
	if out[0].DownloadURL != "magnet:1" || out[1].DownloadURL != "magnet:4" {
		t.Fatalf("unexpected survivors: %+v", out)
	}
}

func TestFilterAcceptedDropsIncompleteResults(t *testing.T) {
	scored := []domain.ScoredResult{
		{Result: domain.Result{Title: "A", Author: "B", DownloadURL: "magnet:1"}},
		{Result: domain.Result{Title: "", Author: "B", DownloadURL: "magnet:2"}},
		{Result: domain.Result{Title: "A", Author: "", DownloadURL: "magnet:3"}},
		{Result: domain.Result{Title: "A", Author: "B", DownloadURL: ""}},
	}
	accepted := FilterAccepted(scored)
	if len(accepted) != 1 {
		t.Fatalf("expected 1 accepted result, got %d", len(accepted))
	}
}

func TestBuildManualCapsAtTwentyAndAssignsOrdinals(t *testing.T) {
	scored := make([]domain.ScoredResult, 25)
	for i := range scored {
		scored[i] = domain.ScoredResult{
			Result: domain.Result{Title: "T", Author: "A", DownloadURL: "magnet:x", SizeBytes: 1 << 20},
		}
	}
	display := BuildManual(scored)
	if len(display) != 20 {
		t.Fatalf("expected manual mode capped at 20, got %d", len(display))
	}
	if display[0].ID != 1 || display[19].ID != 20 {
		t.Fatalf("expected 1-based ordinals, got first=%d last=%d", display[0].ID, display[19].ID)
	}
	if display[0].HumanSize == "" {
		t.Fatalf("expected a human-readable size")
	}
}

func TestBuildAutomaticReturnsTopRankedAcceptedResult(t *testing.T) {
	scored := []domain.ScoredResult{
		{
			Result:  domain.Result{Title: "Best", Author: "A", DownloadURL: "magnet:1"},
			Quality: domain.QualityScore{Total: 9, Confidence: 92},
		},
		{
			Result:  domain.Result{Title: "Second", Author: "A", DownloadURL: "magnet:2"},
			Quality: domain.QualityScore{Total: 5, Confidence: 50},
		},
	}
	selection := BuildAutomatic("book-1", scored, time.Now())
	if selection == nil {
		t.Fatalf("expected a selection")
	}
	if selection.SelectedResult.Title != "Best" {
		t.Fatalf("expected the top-ranked result, got %q", selection.SelectedResult.Title)
	}
	if selection.ConfidenceScore != 92 {
		t.Fatalf("expected confidence_score to mirror the quality assessment, got %v", selection.ConfidenceScore)
	}
}

func TestBuildAutomaticSkipsUnacceptedTopResult(t *testing.T) {
	scored := []domain.ScoredResult{
		{
			Result:  domain.Result{Title: "", Author: "A", DownloadURL: "magnet:1"},
			Quality: domain.QualityScore{Total: 9, Confidence: 92},
		},
		{
			Result:  domain.Result{Title: "Valid", Author: "A", DownloadURL: "magnet:2"},
			Quality: domain.QualityScore{Total: 5, Confidence: 50},
		},
	}
	selection := BuildAutomatic("book-1", scored, time.Now())
	if selection == nil || selection.SelectedResult.Title != "Valid" {
		t.Fatalf("expected the valid result to be selected, got %+v", selection)
	}
}

func TestBuildAutomaticNoAcceptedResults(t *testing.T) {
	scored := []domain.ScoredResult{
		{Result: domain.Result{Title: "", Author: "", DownloadURL: ""}},
	}
	if sel := BuildAutomatic("book-1", scored, time.Now()); sel != nil {
		t.Fatalf("expected nil selection, got %+v", sel)
	}
}
