package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickPolicy() Policy {
	return Policy{
		Attempts:   3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Retry(context.Background(), DefaultPolicy(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := Retry(context.Background(), quickPolicy(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Retry(context.Background(), quickPolicy(), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_PermanentErrorNoRetry(t *testing.T) {
	var calls int
	err := Retry(context.Background(), quickPolicy(), func(_ context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := Retry(ctx, quickPolicy(), func(_ context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("flaky"), 502)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestRetryVal_PreservesValue(t *testing.T) {
	var calls int
	got, err := RetryVal(context.Background(), quickPolicy(), func(_ context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, NewTransientError(errors.New("temporary"), 429)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestRetry_CustomRetryable(t *testing.T) {
	sentinel := errors.New("special")
	p := quickPolicy()
	p.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	var calls int
	err := Retry(context.Background(), p, func(_ context.Context) error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls with custom retryable, got %d", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var notified []int
	p := quickPolicy()
	p.OnRetry = func(attempt int, _ error) { notified = append(notified, attempt) }

	_ = Retry(context.Background(), p, func(_ context.Context) error {
		return NewTransientError(errors.New("flaky"), 503)
	})

	if len(notified) != 2 {
		t.Fatalf("expected 2 retry notifications, got %d", len(notified))
	}
	if notified[0] != 1 || notified[1] != 2 {
		t.Errorf("unexpected attempt numbers: %v", notified)
	}
}

func TestDelayFor_CapsAtMax(t *testing.T) {
	p := Policy{
		BaseDelay:  time.Second,
		MaxDelay:   2 * time.Second,
		Multiplier: 10,
	}
	d := delayFor(5, p)
	if d > 2*time.Second {
		t.Errorf("delay %v exceeds cap", d)
	}
}
