// Package track keeps the "best score seen so far" across poll cycles.
package track

import "kernelwatch/internal/rank"

// State is the best score notified-on so far. The zero value means no score
// has ever been observed. Exactly one writer (the poll loop) mutates it, at
// most once per cycle, and only through Update.
type State struct {
	Score float64 `json:"score"`
	Ref   string  `json:"ref"`
	Title string  `json:"title,omitempty"`
	Set   bool    `json:"set"`
}

// Update decides whether candidate improves on cur.
//
// Rules:
//   - no candidate (ok=false): state unchanged, no improvement
//   - empty current state: any candidate improves
//   - otherwise strict inequality per dir; an equal score is NOT an
//     improvement, even from a different kernel
//
// On improvement the returned state carries the candidate's score and ref;
// otherwise cur is returned untouched. Pure function, no hidden state.
func Update(cur State, candidate rank.Scored, ok bool, dir rank.Direction) (State, bool) {
	if !ok {
		return cur, false
	}
	if cur.Set && !dir.Better(candidate.Score, cur.Score) {
		return cur, false
	}
	return State{
		Score: candidate.Score,
		Ref:   candidate.Ref,
		Title: candidate.Title,
		Set:   true,
	}, true
}
