package storage

// Package storage persists the watcher's best-score state so a restart does
// not re-notify on a score that was already announced.
//
// It currently supports:
//   - Best-state snapshots (per competition)
//   - An append-only history of improvements (the notification audit trail)
