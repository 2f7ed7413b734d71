package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (snapshot + jsonl history)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled and the best state
// lives in memory only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Improvement records one new-best observation. Keep it compact and
// schema-stable; it is the audit trail of every notification sent.
type Improvement struct {
	At          time.Time
	Competition string
	Ref         string
	Title       string
	Score       float64
}
