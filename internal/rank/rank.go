// Package rank picks the best-scoring kernel out of a listing snapshot.
package rank

import (
	"fmt"
	"strings"

	"kernelwatch/internal/kaggle"
	"kernelwatch/internal/score"
)

// Direction says whether larger or smaller scores are better for the
// monitored competition's metric. Fixed for the life of the competition.
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// ParseDirection accepts the config spellings for a sort direction.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "maximize", "max", "desc", "descending":
		return Maximize, nil
	case "minimize", "min", "asc", "ascending":
		return Minimize, nil
	default:
		return Maximize, fmt.Errorf("unknown direction %q (want maximize or minimize)", raw)
	}
}

// Better reports whether a is strictly more favorable than b.
// Equal scores are never better; this is what keeps repeat listings of the
// same score from looking like improvements.
func (d Direction) Better(a, b float64) bool {
	if d == Minimize {
		return a < b
	}
	return a > b
}

// Scored is a kernel whose title yielded a parseable score.
type Scored struct {
	kaggle.Kernel
	Score float64
}

// Best applies the score parser to every kernel and returns the extremal one
// per dir. Kernels without a parseable score are skipped. Ties keep the
// earliest kernel in input order (strict comparison), so the result is
// deterministic for identical input. ok is false when nothing parsed.
func Best(kernels []kaggle.Kernel, dir Direction) (best Scored, ok bool) {
	for _, k := range kernels {
		v, found := score.Parse(k.Title)
		if !found {
			continue
		}
		if !ok || dir.Better(v, best.Score) {
			best = Scored{Kernel: k, Score: v}
			ok = true
		}
	}
	return best, ok
}
