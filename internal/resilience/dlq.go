package resilience

import (
	"time"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// DLQEntry is a company whose batch run failed and may be retried later.
type DLQEntry struct {
	ID           string                `json:"id"`
	Company      model.CompanyIdentity `json:"company"`
	Error        string                `json:"error"`
	ErrorType    string                `json:"error_type"` // "transient" or "permanent"
	FailedPhase  string                `json:"failed_phase,omitempty"`
	RetryCount   int                   `json:"retry_count"`
	MaxRetries   int                   `json:"max_retries"`
	NextRetryAt  time.Time             `json:"next_retry_at"`
	CreatedAt    time.Time             `json:"created_at"`
	LastFailedAt time.Time             `json:"last_failed_at"`
}

// DLQFilter specifies criteria for querying the dead letter queue.
type DLQFilter struct {
	ErrorType string `json:"error_type,omitempty"` // "transient", "permanent", or "" for all
	Limit     int    `json:"limit,omitempty"`
}

// CanRetry reports whether the entry is still under its retry budget.
func (e *DLQEntry) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// Due reports whether the entry's backoff window has elapsed.
func (e *DLQEntry) Due(now time.Time) bool {
	return !now.Before(e.NextRetryAt)
}

// NextRetryDelay returns the backoff before the given retry number:
// 1m, 5m, 25m, ... capped at 6h.
func NextRetryDelay(retryCount int) time.Duration {
	d := time.Minute
	for i := 0; i < retryCount; i++ {
		d *= 5
		if d >= 6*time.Hour {
			return 6 * time.Hour
		}
	}
	return d
}
