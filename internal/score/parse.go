// Package score extracts best-effort numeric scores from kernel titles.
//
// Titles are free text; authors advertise leaderboard results in forms like
// "[LB 0.694] My solution" or "silver medal, score: 12.5". Parsing is a
// heuristic and deliberately conservative: when a title is ambiguous the
// parser reports no score rather than guessing.
package score

import (
	"math"
	"regexp"
	"strconv"
)

// markerRe matches a number announced by a score marker (LB, score, cv,
// public), case-insensitive, with optional ":"/"=" between marker and value.
var markerRe = regexp.MustCompile(`(?i)\b(?:lb|score|cv|public)\b\s*[:=]?\s*([+-]?[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?)`)

// numberRe matches standalone numeric tokens for the fallback rule.
var numberRe = regexp.MustCompile(`[+-]?[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`)

// Parse extracts a score from a kernel title.
//
// Policy, in order:
//  1. The first marker-adjacent number wins ("LB 0.694", "score: 12.5").
//  2. Otherwise, if the title contains exactly one numeric token, that token
//     is the score. Zero or several tokens without a marker is ambiguous and
//     yields no score.
//
// Malformed numerics (e.g. "0.8.1") and non-finite values never match.
// Parse is pure and never panics.
func Parse(title string) (float64, bool) {
	if title == "" {
		return 0, false
	}

	for _, m := range markerRe.FindAllStringSubmatchIndex(title, -1) {
		// m[2]:m[3] is the captured number.
		if !delimited(title, m[2], m[3]) {
			continue
		}
		if v, ok := parseFinite(title[m[2]:m[3]]); ok {
			return v, true
		}
	}

	var (
		candidate float64
		valid     int
		total     int
	)
	for _, m := range numberRe.FindAllStringIndex(title, -1) {
		total++
		if !delimited(title, m[0], m[1]) {
			// Embedded or malformed numerics ("v2", "0.8.1") are not
			// candidates, but they still make the title ambiguous.
			continue
		}
		v, ok := parseFinite(title[m[0]:m[1]])
		if !ok {
			continue
		}
		candidate = v
		valid++
	}
	if total == 1 && valid == 1 {
		return candidate, true
	}
	return 0, false
}

// delimited reports whether title[start:end] is a well-delimited numeric
// token: not glued to a letter, digit, dot or underscore on either side.
// This rejects version-like fragments ("v2", "0.8.1") without lookbehind.
func delimited(title string, start, end int) bool {
	if start > 0 {
		c := title[start-1]
		if isWordish(c) || c == '.' {
			return false
		}
	}
	if end < len(title) {
		c := title[end]
		if isWordish(c) || c == '.' {
			return false
		}
	}
	return true
}

func isWordish(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
