package storage

import (
	"context"
	"errors"
	"strings"

	"kernelwatch/internal/track"
	logx "kernelwatch/pkg/logx"
)

// Store is the minimal persistence API used by the watcher.
type Store interface {
	// LoadBest returns the persisted best state for a competition.
	// A zero state (Set=false) means nothing was persisted yet.
	LoadBest(ctx context.Context, competition string) (track.State, error)
	SaveBest(ctx context.Context, competition string, st track.State) error
	AppendImprovement(ctx context.Context, e Improvement) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
