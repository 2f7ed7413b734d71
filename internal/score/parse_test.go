package score

import "testing"

func TestParseMarkers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		title string
		want  float64
	}{
		{name: "bracketed lb", title: "[LB 0.694] My solution", want: 0.694},
		{name: "lb lowercase", title: "my solution lb 0.77", want: 0.77},
		{name: "score colon", title: "silver medal, score: 12.5", want: 12.5},
		{name: "score equals", title: "ensemble score=0.9123", want: 0.9123},
		{name: "cv marker", title: "CV 0.8421 single model", want: 0.8421},
		{name: "public marker", title: "public 0.801 private unknown", want: 0.801},
		{name: "negative", title: "LB -3.25 log loss", want: -3.25},
		{name: "scientific", title: "score 1.2e-3 MAE", want: 0.0012},
		{name: "integer", title: "LB 42", want: 42},
		{name: "marker wins over other numbers", title: "v2 ensemble of 3, LB 0.81", want: 0.81},
		{name: "first marker wins", title: "LB 0.77 then score 0.99", want: 0.77},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.title)
			if !ok {
				t.Fatalf("Parse(%q) found nothing, want %v", tt.title, tt.want)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestParseFallbackSingleNumber(t *testing.T) {
	t.Parallel()
	got, ok := Parse("my solution 0.8421 final")
	if !ok || got != 0.8421 {
		t.Fatalf("Parse = (%v, %v), want (0.8421, true)", got, ok)
	}
}

func TestParseNotFound(t *testing.T) {
	t.Parallel()
	titles := []string{
		"",
		"My great solution",
		"no numbers here at all",
		"two numbers 0.5 and 0.7 without marker",
		"version 0.8.1 of my pipeline", // malformed numeric
		"GPT4 baseline",                // digit glued to a word
		"top-5 finish, 3 models",       // ambiguous
	}
	for _, title := range titles {
		if v, ok := Parse(title); ok {
			t.Fatalf("Parse(%q) = %v, want not found", title, v)
		}
	}
}

func TestParseIsPure(t *testing.T) {
	t.Parallel()
	const title = "[LB 0.694] My solution"
	a, aok := Parse(title)
	b, bok := Parse(title)
	if a != b || aok != bok {
		t.Fatalf("Parse not deterministic: (%v,%v) vs (%v,%v)", a, aok, b, bok)
	}
}
