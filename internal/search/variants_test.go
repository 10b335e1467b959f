package search

import "testing"

func TestBuildVariantTitlesSubtitleStripping(t *testing.T) {
	variants := BuildVariantTitles("Mistborn: The Final Empire")
	if len(variants) < 2 {
		t.Fatalf("expected at least 2 variants, got %v", variants)
	}
	if variants[0] != "Mistborn: The Final Empire" {
		t.Fatalf("expected canonical title first, got %q", variants[0])
	}
	if variants[1] != "Mistborn" {
		t.Fatalf("expected subtitle-stripped variant, got %q", variants[1])
	}
}

func TestBuildVariantTitlesSeriesNumberForm(t *testing.T) {
	variants := BuildVariantTitles("The Primal Hunter 12")
	found := false
	for _, v := range variants {
		if v == "The Primal Hunter, Book 12" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a comma-book variant, got %v", variants)
	}
}

func TestBuildVariantTitlesCommaBookForm(t *testing.T) {
	variants := BuildVariantTitles("The Primal Hunter, Book 12")
	found := false
	for _, v := range variants {
		if v == "The Primal Hunter 12" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a bare-number variant, got %v", variants)
	}
}

func TestBuildVariantTitlesDedupesPreservingOrder(t *testing.T) {
	variants := BuildVariantTitles("The Primal Hunter 12")
	seen := map[string]int{}
	for _, v := range variants {
		seen[v]++
		if seen[v] > 1 {
			t.Fatalf("expected no duplicate variants, got %v", variants)
		}
	}
}

func TestBuildVariantTitlesEmptyInput(t *testing.T) {
	if variants := BuildVariantTitles(""); variants != nil {
		t.Fatalf("expected nil variants for empty title, got %v", variants)
	}
}
