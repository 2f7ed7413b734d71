// Package watch runs the poll loop: fetch the kernel listing, rank it,
// compare against the best score seen so far, notify on improvement, sleep,
// repeat. One cycle is in flight at any time; nothing here is concurrent.
package watch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"kernelwatch/internal/kaggle"
	"kernelwatch/internal/rank"
	"kernelwatch/internal/storage"
	"kernelwatch/internal/track"
	logx "kernelwatch/pkg/logx"
)

// Sender delivers one notification message. Delivery failures are the
// sender's to classify; the watcher commits state either way.
type Sender interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	Competition string
	Direction   rank.Direction
	Schedule    Schedule

	// FetchTimeout bounds one listing fetch so a hung call cannot stall the
	// loop forever. 0 means 30s.
	FetchTimeout time.Duration
}

// Watcher owns the best-score state. It is the single writer; state changes
// happen at most once per cycle, only on a confirmed improvement.
type Watcher struct {
	cfg    Config
	lister kaggle.Lister
	sender Sender
	store  storage.Store // nil means in-memory only
	log    logx.Logger

	mu   sync.Mutex
	best track.State

	// Injectable clock/sleep so tests can run many cycles without real
	// time passing.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, lister kaggle.Lister, sender Sender, store storage.Store, log logx.Logger) *Watcher {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.Schedule.Kind == SpecInterval && cfg.Schedule.Every <= 0 {
		cfg.Schedule.Every = time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Watcher{
		cfg:    cfg,
		lister: lister,
		sender: sender,
		store:  store,
		log:    log.With(logx.String("competition", cfg.Competition)),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Apply swaps the schedule at runtime (config reload). The new cadence takes
// effect from the next sleep.
func (w *Watcher) Apply(s Schedule) {
	w.mu.Lock()
	w.cfg.Schedule = s
	w.mu.Unlock()
}

// Best returns a copy of the current best state.
func (w *Watcher) Best() track.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.best
}

// Run executes poll cycles until ctx is cancelled. No cycle failure ever
// terminates the loop; the only way out is cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.restore(ctx)

	w.log.Info("watch loop started",
		logx.String("direction", w.cfg.Direction.String()),
		logx.String("schedule", w.scheduleString()))

	for {
		w.cycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w.mu.Lock()
		sched := w.cfg.Schedule
		w.mu.Unlock()

		// Measured from the end of this cycle's work, so fetch latency does
		// not compound into drift.
		if err := w.sleep(ctx, sched.Next(w.now())); err != nil {
			return err
		}
	}
}

// restore loads the persisted best state so a restart does not re-announce
// a score that was already notified on.
func (w *Watcher) restore(ctx context.Context) {
	if w.store == nil {
		return
	}
	st, err := w.store.LoadBest(ctx, w.cfg.Competition)
	if err != nil {
		w.log.Warn("restoring best state failed; starting empty", logx.Err(err))
		return
	}
	if !st.Set {
		return
	}
	w.mu.Lock()
	w.best = st
	w.mu.Unlock()
	w.log.Info("best state restored",
		logx.Float64("score", st.Score),
		logx.String("ref", st.Ref))
}

// cycle runs one fetch–evaluate–notify pass. Every failure mode, including a
// panic out of parsing or the listing client, is contained here.
func (w *Watcher) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("cycle panicked; skipping",
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	kernels, err := w.lister.ListKernels(fetchCtx, w.cfg.Competition)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("listing fetch failed; skipping cycle", logx.Err(err))
		return
	}

	candidate, ok := rank.Best(kernels, w.cfg.Direction)
	if !ok {
		w.log.Debug("no kernel with a parseable score", logx.Int("kernels", len(kernels)))
		return
	}

	w.mu.Lock()
	cur := w.best
	w.mu.Unlock()

	next, improved := track.Update(cur, candidate, ok, w.cfg.Direction)
	if !improved {
		w.log.Debug("no new best",
			logx.Float64("candidate", candidate.Score),
			logx.Float64("best", cur.Score))
		return
	}

	w.log.Info("new best kernel",
		logx.Float64("score", candidate.Score),
		logx.String("ref", candidate.Ref),
		logx.String("title", candidate.Title))

	// Commit-and-log policy: the new best is committed whether or not the
	// notification goes out. A flaky channel must not cause a re-notify
	// storm on every following cycle.
	if err := w.sender.Notify(ctx, formatMessage(candidate)); err != nil {
		w.log.Error("notification delivery failed; best state committed anyway", logx.Err(err))
	}

	w.mu.Lock()
	w.best = next
	w.mu.Unlock()

	w.persist(ctx, next, candidate)
}

func (w *Watcher) persist(ctx context.Context, st track.State, cand rank.Scored) {
	if w.store == nil {
		return
	}
	if err := w.store.SaveBest(ctx, w.cfg.Competition, st); err != nil {
		w.log.Error("persisting best state failed", logx.Err(err))
	}
	imp := storage.Improvement{
		At:          w.now(),
		Competition: w.cfg.Competition,
		Ref:         cand.Ref,
		Title:       cand.Title,
		Score:       cand.Score,
	}
	if err := w.store.AppendImprovement(ctx, imp); err != nil {
		w.log.Warn("recording improvement failed", logx.Err(err))
	}
}

func formatMessage(k rank.Scored) string {
	msg := fmt.Sprintf("New best kernel published!\nTitle: %s\nScore: %s",
		k.Title, strconv.FormatFloat(k.Score, 'g', -1, 64))
	if k.URL != "" {
		msg += "\n" + k.URL
	}
	return msg
}

func (w *Watcher) scheduleString() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cfg.Schedule.Kind == SpecCron {
		return "cron"
	}
	return w.cfg.Schedule.Every.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still yield to cancellation between back-to-back cycles.
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
