// Package notifier delivers improvement notifications over the transport
// adapter, with a client-side rate limit and bounded retry.
//
// The watcher sends at most one notification per poll cycle, so there is no
// queue or worker pool here; delivery happens inline with retry/backoff for
// transient channel failures.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"kernelwatch/internal/transport"
	logx "kernelwatch/pkg/logx"
)

// ErrDelivery wraps every send failure after retries are exhausted.
var ErrDelivery = errors.New("notification delivery failed")

type Config struct {
	Target transport.ChatTarget

	// RatePerSec limits outgoing sends. 0 means 3/s.
	RatePerSec int
	// RetryMax is the number of retries after the first attempt. <0 means 0.
	RetryMax int
	// RetryBase is the initial backoff, doubled per attempt. 0 means 500ms.
	RetryBase time.Duration
	// SendTimeout bounds one delivery attempt. 0 means 15s.
	SendTimeout time.Duration
}

type Service struct {
	cfg     Config
	adapter transport.Adapter
	log     logx.Logger
	limiter *rate.Limiter

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, adapter transport.Adapter, log logx.Logger) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		adapter: adapter,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		sleep:   sleepCtx,
	}
}

// Notify sends text to the configured chat. It retries transient failures
// with exponential backoff up to RetryMax times; the final error is wrapped
// in ErrDelivery. Context cancellation aborts both waits and sends.
func (s *Service) Notify(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	var err error
	attempts := 1 + s.cfg.RetryMax
	for attempt := 1; attempt <= attempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		_, err = s.adapter.SendText(sendCtx, s.cfg.Target, text, &transport.SendOptions{DisablePreview: true})
		cancel()
		if err == nil {
			s.log.Debug("notification sent",
				logx.Int64("chat_id", s.cfg.Target.ChatID),
				logx.Int("attempt", attempt))
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			backoff := s.cfg.RetryBase << (attempt - 1)
			s.log.Warn("notification send failed; retrying",
				logx.Int("attempt", attempt),
				logx.Duration("backoff", backoff),
				logx.Err(err))
			if werr := s.sleep(ctx, backoff); werr != nil {
				break
			}
		}
	}

	return fmt.Errorf("%w: %v", ErrDelivery, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
