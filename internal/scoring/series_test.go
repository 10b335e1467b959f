package scoring

import "testing"

func TestExtractSeriesTrailingNumber(t *testing.T) {
	info := ExtractSeries("Mark of the Fool 8")
	if info.Name != "Mark of the Fool" || info.BookNumber != "8" {
		t.Fatalf("unexpected series info: %+v", info)
	}
}

func TestExtractSeriesIgnoresQualityBracket(t *testing.T) {
	withBracket := ExtractSeries("Mark of the Fool 8 [M4B 128]")
	withoutBracket := ExtractSeries("Mark of the Fool 8")
	if withBracket.Name != withoutBracket.Name || withBracket.BookNumber != withoutBracket.BookNumber {
		t.Fatalf("quality bracket changed series detection: %+v vs %+v", withBracket, withoutBracket)
	}
}

func TestExtractSeriesDoesNotMistakeBracketForSeriesHash(t *testing.T) {
	info := ExtractSeries("Some Audiobook [128 kbps]")
	if info.Name != "" || info.BookNumber != "" {
		t.Fatalf("expected no series detected from a bare quality bracket, got %+v", info)
	}
}

func TestExtractSeriesCommaBookForm(t *testing.T) {
	info := ExtractSeries("The Primal Hunter, Book 12")
	if info.Name != "The Primal Hunter" || info.BookNumber != "12" {
		t.Fatalf("unexpected series info: %+v", info)
	}
}

func TestExtractSeriesParenHashForm(t *testing.T) {
	info := ExtractSeries("Mistborn (Mistborn #1)")
	if info.Name != "Mistborn" || info.BookNumber != "1" {
		t.Fatalf("unexpected series info: %+v", info)
	}
}

func TestIsSubsetEmptySearchIsVacuouslyTrue(t *testing.T) {
	if !isSubset(map[string]struct{}{}, map[string]struct{}{}) {
		t.Fatalf("expected isSubset to treat an empty search token set as vacuously true")
	}
	if !isSubset(map[string]struct{}{}, map[string]struct{}{"anything": {}}) {
		t.Fatalf("expected isSubset to treat an empty search token set as vacuously true regardless of b")
	}
}
