package rank

import (
	"testing"

	"kernelwatch/internal/kaggle"
)

func listing() []kaggle.Kernel {
	return []kaggle.Kernel{
		{Ref: "a/first", Title: "baseline LB 0.80"},
		{Ref: "b/second", Title: "ensemble LB 0.91"},
		{Ref: "c/third", Title: "single model LB 0.85"},
		{Ref: "d/unparsed", Title: "my great solution"},
	}
}

func TestBestMaximize(t *testing.T) {
	t.Parallel()
	best, ok := Best(listing(), Maximize)
	if !ok {
		t.Fatal("expected a best kernel")
	}
	if best.Ref != "b/second" || best.Score != 0.91 {
		t.Fatalf("Best = %q score %v, want b/second 0.91", best.Ref, best.Score)
	}
}

func TestBestMinimize(t *testing.T) {
	t.Parallel()
	best, ok := Best(listing(), Minimize)
	if !ok {
		t.Fatal("expected a best kernel")
	}
	if best.Ref != "a/first" || best.Score != 0.80 {
		t.Fatalf("Best = %q score %v, want a/first 0.80", best.Ref, best.Score)
	}
}

func TestBestDeterministic(t *testing.T) {
	t.Parallel()
	a, aok := Best(listing(), Maximize)
	b, bok := Best(listing(), Maximize)
	if aok != bok || a != b {
		t.Fatalf("Best not deterministic: %+v vs %+v", a, b)
	}
}

func TestBestTieKeepsEarliest(t *testing.T) {
	t.Parallel()
	kernels := []kaggle.Kernel{
		{Ref: "x/early", Title: "LB 0.9"},
		{Ref: "y/late", Title: "LB 0.9"},
	}
	best, ok := Best(kernels, Maximize)
	if !ok || best.Ref != "x/early" {
		t.Fatalf("tie-break picked %q, want x/early", best.Ref)
	}
}

func TestBestNothingParseable(t *testing.T) {
	t.Parallel()
	kernels := []kaggle.Kernel{
		{Ref: "a/one", Title: "no score here"},
		{Ref: "b/two", Title: "numbers 1 and 2 are ambiguous"},
	}
	if best, ok := Best(kernels, Maximize); ok {
		t.Fatalf("expected no best, got %+v", best)
	}
	if best, ok := Best(nil, Maximize); ok {
		t.Fatalf("expected no best for empty input, got %+v", best)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "maximize", "MAX", "desc"} {
		d, err := ParseDirection(raw)
		if err != nil || d != Maximize {
			t.Fatalf("ParseDirection(%q) = %v, %v", raw, d, err)
		}
	}
	for _, raw := range []string{"minimize", "min", "ascending"} {
		d, err := ParseDirection(raw)
		if err != nil || d != Minimize {
			t.Fatalf("ParseDirection(%q) = %v, %v", raw, d, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}
