package resilience

import (
	"testing"
	"time"
)

func TestDLQEntry_CanRetry(t *testing.T) {
	e := DLQEntry{RetryCount: 0, MaxRetries: 3}
	if !e.CanRetry() {
		t.Error("fresh entry should be retryable")
	}

	e.RetryCount = 3
	if e.CanRetry() {
		t.Error("exhausted entry should not be retryable")
	}
}

func TestDLQEntry_Due(t *testing.T) {
	now := time.Now()
	e := DLQEntry{NextRetryAt: now.Add(-time.Minute)}
	if !e.Due(now) {
		t.Error("past NextRetryAt should be due")
	}

	e.NextRetryAt = now.Add(time.Hour)
	if e.Due(now) {
		t.Error("future NextRetryAt should not be due")
	}
}

func TestNextRetryDelay_Growth(t *testing.T) {
	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, time.Minute},
		{1, 5 * time.Minute},
		{2, 25 * time.Minute},
		{3, 125 * time.Minute},
		{4, 6 * time.Hour},
		{10, 6 * time.Hour},
	}
	for _, c := range cases {
		if got := NextRetryDelay(c.retryCount); got != c.want {
			t.Errorf("NextRetryDelay(%d) = %v, want %v", c.retryCount, got, c.want)
		}
	}
}
