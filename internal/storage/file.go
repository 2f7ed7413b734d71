package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"kernelwatch/internal/track"
	logx "kernelwatch/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.best.json           (snapshot: competition -> best state)
//   - <prefix>.improvements.jsonl  (append-only JSON Lines history)
//
// The snapshot is rewritten atomically (tmp + rename) on every save; there
// is at most one save per poll cycle so write volume is trivial.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	best         map[string]track.State

	improvementsFile *os.File
}

type improvementRecord struct {
	At          string  `json:"at"`
	Competition string  `json:"competition"`
	Ref         string  `json:"ref"`
	Title       string  `json:"title,omitempty"`
	Score       float64 `json:"score"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	snapPath := prefix + ".best.json"
	histPath := prefix + ".improvements.jsonl"

	best := map[string]track.State{}
	if err := loadSnapshot(snapPath, &best); err != nil {
		// A corrupt snapshot must not kill the process; start fresh and
		// keep the broken file for inspection.
		log.Warn("best-state snapshot unreadable; starting empty",
			logx.String("path", snapPath), logx.Err(err))
		best = map[string]track.State{}
	}

	hf, err := os.OpenFile(histPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:              log,
		snapshotPath:     snapPath,
		best:             best,
		improvementsFile: hf,
	}, nil
}

func loadSnapshot(path string, into *map[string]track.State) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.improvementsFile != nil {
		err := s.improvementsFile.Close()
		s.improvementsFile = nil
		return err
	}
	return nil
}

func (s *fileStore) LoadBest(ctx context.Context, competition string) (track.State, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best[competition], nil
}

func (s *fileStore) SaveBest(ctx context.Context, competition string, st track.State) error {
	_ = ctx
	if strings.TrimSpace(competition) == "" {
		return errors.New("competition is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.best[competition] = st
	return s.writeSnapshotLocked()
}

func (s *fileStore) AppendImprovement(ctx context.Context, e Improvement) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.improvementsFile == nil {
		return errors.New("improvements file closed")
	}
	rec := improvementRecord{
		At:          e.At.Format(time.RFC3339Nano),
		Competition: e.Competition,
		Ref:         e.Ref,
		Title:       e.Title,
		Score:       e.Score,
	}
	return json.NewEncoder(s.improvementsFile).Encode(rec)
}

func (s *fileStore) writeSnapshotLocked() error {
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.best); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.snapshotPath)
}
