package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingCall(_ context.Context) error { return errors.New("boom") }

func okCall(_ context.Context) error { return nil }

func newTestBreaker(cfg BreakerConfig) (*Breaker, *time.Time) {
	now := time.Now()
	b := NewBreaker(cfg)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{Threshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		_ = b.Execute(context.Background(), failingCall)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %v", b.State())
	}

	err := b.Execute(context.Background(), okCall)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{Threshold: 3, Cooldown: time.Minute})

	_ = b.Execute(context.Background(), failingCall)
	_ = b.Execute(context.Background(), failingCall)
	if b.State() != StateClosed {
		t.Errorf("expected closed below threshold, got %v", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{Threshold: 2, Cooldown: time.Minute})

	_ = b.Execute(context.Background(), failingCall)
	_ = b.Execute(context.Background(), okCall)
	_ = b.Execute(context.Background(), failingCall)
	if b.State() != StateClosed {
		t.Errorf("success should reset the streak, got %v", b.State())
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: 30 * time.Second})

	_ = b.Execute(context.Background(), failingCall)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	*now = now.Add(31 * time.Second)
	if b.State() != StateHalfOpen {
		t.Errorf("expected half-open after cooldown, got %v", b.State())
	}
}

func TestBreaker_ClosesOnProbeSuccess(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second, Probes: 1})

	_ = b.Execute(context.Background(), failingCall)
	*now = now.Add(2 * time.Second)

	if err := b.Execute(context.Background(), okCall); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after probe success, got %v", b.State())
	}
}

func TestBreaker_ReopensOnProbeFailure(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second, Probes: 1})

	_ = b.Execute(context.Background(), failingCall)
	*now = now.Add(2 * time.Second)

	_ = b.Execute(context.Background(), failingCall)
	if b.State() != StateOpen {
		t.Errorf("expected reopen after probe failure, got %v", b.State())
	}
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Hour})

	_ = b.Execute(context.Background(), failingCall)
	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("expected closed after reset, got %v", b.State())
	}
	if err := b.Execute(context.Background(), okCall); err != nil {
		t.Errorf("unexpected error after reset: %v", err)
	}
}

func TestBreakerVal_ReturnsValue(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{Threshold: 3, Cooldown: time.Minute})

	got, err := BreakerVal(context.Background(), b, func(_ context.Context) (string, error) {
		return "hello", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestBreakerSet_SameInstance(t *testing.T) {
	set := NewBreakerSet(DefaultBreakerConfig())
	a := set.Get("search")
	b := set.Get("search")
	if a != b {
		t.Error("same name should return same breaker")
	}
	c := set.Get("crawl")
	if a == c {
		t.Error("different names should return different breakers")
	}
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []BreakerState
	cfg := BreakerConfig{
		Threshold: 1,
		Cooldown:  time.Minute,
		OnStateChange: func(_, to BreakerState) {
			transitions = append(transitions, to)
		},
	}
	b, _ := newTestBreaker(cfg)

	_ = b.Execute(context.Background(), failingCall)
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("expected transition to open, got %v", transitions)
	}
}
