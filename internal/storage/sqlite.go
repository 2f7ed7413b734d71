//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"kernelwatch/internal/track"
	logx "kernelwatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadBest(ctx context.Context, competition string) (track.State, error) {
	if s == nil || s.db == nil {
		return track.State{}, ErrDisabled
	}
	var st track.State
	var title sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT score, ref, title FROM best_state WHERE competition = ?`,
		competition,
	).Scan(&st.Score, &st.Ref, &title)
	if errors.Is(err, sql.ErrNoRows) {
		return track.State{}, nil
	}
	if err != nil {
		return track.State{}, err
	}
	st.Title = title.String
	st.Set = true
	return st, nil
}

func (s *sqliteStore) SaveBest(ctx context.Context, competition string, st track.State) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(competition) == "" {
		return errors.New("competition is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO best_state(competition, score, ref, title, updated_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(competition) DO UPDATE SET
		   score=excluded.score, ref=excluded.ref, title=excluded.title, updated_at=excluded.updated_at`,
		competition, st.Score, st.Ref, nullStr(st.Title), time.Now().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) AppendImprovement(ctx context.Context, e Improvement) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO improvements(at, competition, ref, title, score) VALUES(?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.Competition, e.Ref, nullStr(e.Title), e.Score,
	)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
