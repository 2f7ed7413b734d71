package track

import (
	"testing"

	"kernelwatch/internal/kaggle"
	"kernelwatch/internal/rank"
)

func scored(ref string, v float64) rank.Scored {
	return rank.Scored{Kernel: kaggle.Kernel{Ref: ref, Title: "t"}, Score: v}
}

func TestUpdateFirstObservation(t *testing.T) {
	t.Parallel()
	st, improved := Update(State{}, scored("k1", 0.77), true, rank.Maximize)
	if !improved {
		t.Fatal("first observation must be an improvement")
	}
	if !st.Set || st.Score != 0.77 || st.Ref != "k1" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestUpdateNoCandidate(t *testing.T) {
	t.Parallel()
	cur := State{Score: 0.5, Ref: "k1", Set: true}
	st, improved := Update(cur, rank.Scored{}, false, rank.Maximize)
	if improved || st != cur {
		t.Fatalf("absent candidate must leave state unchanged, got %+v improved=%v", st, improved)
	}
}

func TestUpdateEqualScoreIsNotImprovement(t *testing.T) {
	t.Parallel()
	cur := State{Score: 0.91, Ref: "k1", Set: true}
	// Even from a different kernel.
	st, improved := Update(cur, scored("k2", 0.91), true, rank.Maximize)
	if improved {
		t.Fatal("equal score must not be an improvement")
	}
	if st != cur {
		t.Fatalf("state must be unchanged, got %+v", st)
	}
}

func TestUpdateDirections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		dir      rank.Direction
		cur      float64
		cand     float64
		improved bool
	}{
		{name: "maximize better", dir: rank.Maximize, cur: 0.8, cand: 0.9, improved: true},
		{name: "maximize worse", dir: rank.Maximize, cur: 0.8, cand: 0.7, improved: false},
		{name: "minimize better", dir: rank.Minimize, cur: 0.8, cand: 0.7, improved: true},
		{name: "minimize worse", dir: rank.Minimize, cur: 0.8, cand: 0.9, improved: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cur := State{Score: tt.cur, Ref: "k1", Set: true}
			st, improved := Update(cur, scored("k2", tt.cand), true, tt.dir)
			if improved != tt.improved {
				t.Fatalf("improved = %v, want %v", improved, tt.improved)
			}
			if improved && (st.Score != tt.cand || st.Ref != "k2") {
				t.Fatalf("unexpected state after improvement: %+v", st)
			}
			if !improved && st != cur {
				t.Fatalf("state must be unchanged, got %+v", st)
			}
		})
	}
}

func TestUpdateMonotonic(t *testing.T) {
	t.Parallel()
	st := State{}
	scores := []float64{0.5, 0.4, 0.7, 0.7, 0.6, 0.9}
	var last float64
	for i, v := range scores {
		var improved bool
		st, improved = Update(st, scored("k", v), true, rank.Maximize)
		if improved && st.Score <= last && i > 0 {
			t.Fatalf("score moved the wrong way: %v after %v", st.Score, last)
		}
		last = st.Score
	}
	if st.Score != 0.9 {
		t.Fatalf("final score = %v, want 0.9", st.Score)
	}
}
