package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"kernelwatch/internal/transport"
	logx "kernelwatch/pkg/logx"
)

type fakeAdapter struct {
	failures int
	calls    int
	texts    []string
}

func (f *fakeAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.calls <= f.failures {
		return transport.MessageRef{}, errors.New("telegram: 502")
	}
	return transport.MessageRef{ChatID: to.ChatID, MessageID: f.calls}, nil
}

func (f *fakeAdapter) Stop(ctx context.Context) error { return nil }

func newTestService(ad transport.Adapter, retryMax int) *Service {
	s := New(Config{
		Target:     transport.ChatTarget{ChatID: 42},
		RatePerSec: 100,
		RetryMax:   retryMax,
		RetryBase:  time.Millisecond,
	}, ad, logx.Nop())
	// No real backoff waits in tests.
	s.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return s
}

func TestNotifyFirstAttempt(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := newTestService(ad, 2)
	if err := s.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if ad.calls != 1 || ad.texts[0] != "hello" {
		t.Fatalf("calls=%d texts=%v", ad.calls, ad.texts)
	}
}

func TestNotifyRetriesTransientFailure(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{failures: 2}
	s := newTestService(ad, 2)
	if err := s.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify after retries: %v", err)
	}
	if ad.calls != 3 {
		t.Fatalf("calls = %d, want 3", ad.calls)
	}
}

func TestNotifyExhaustsRetries(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{failures: 10}
	s := newTestService(ad, 2)
	err := s.Notify(context.Background(), "hello")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	if ad.calls != 3 {
		t.Fatalf("calls = %d, want 3", ad.calls)
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ad := &fakeAdapter{failures: 10}
	s := newTestService(ad, 5)
	err := s.Notify(ctx, "hello")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	// Cancellation must cut retries short, not run all attempts.
	if ad.calls > 1 {
		t.Fatalf("calls = %d after cancellation", ad.calls)
	}
}
