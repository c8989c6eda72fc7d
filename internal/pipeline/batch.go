package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/resilience"
)

const defaultBatchConcurrency = 5

// BatchOutcome summarizes a batch invocation. Skipped counts companies that
// never entered the pipeline, either because their name was empty or because
// the batch context was cancelled before their turn.
type BatchOutcome struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Enqueued  int `json:"enqueued"`
	Skipped   int `json:"skipped"`
}

// RunBatch discovers each company concurrently, bounded by the configured
// worker limit. A failed company lands in the dead letter queue and never
// aborts the rest of the batch.
func (p *Pipeline) RunBatch(ctx context.Context, companies []model.CompanyIdentity) (*BatchOutcome, error) {
	outcome := &BatchOutcome{Total: len(companies)}
	if len(companies) == 0 {
		zap.L().Info("batch: no companies to process")
		return outcome, nil
	}

	concurrency := p.cfg.Batch.MaxConcurrentCompanies
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	zap.L().Info("batch: processing companies",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", concurrency),
	)

	var succeeded, failed, enqueued, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, company := range companies {
		if !company.Valid() {
			skipped.Add(1)
			zap.L().Warn("batch: skipping company without a name")
			continue
		}
		g.Go(func() error {
			log := zap.L().With(zap.String("company", company.Name))

			if gctx.Err() != nil {
				skipped.Add(1)
				return nil
			}

			run, err := p.Run(gctx, company)
			if err != nil {
				failed.Add(1)
				log.Error("batch: discovery failed", zap.Error(err))
				// A cancellation failure is the batch winding down, not a
				// company worth queueing.
				if gctx.Err() == nil && p.enqueueFailure(gctx, company, run, err) {
					enqueued.Add(1)
				}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			fields := []zap.Field{zap.String("run_id", run.ID)}
			if run.Result != nil && run.Result.Score != nil {
				fields = append(fields, zap.Int("score", run.Result.Score.Total))
			}
			log.Info("batch: discovery complete", fields...)
			return nil
		})
	}

	// Workers always return nil; failures are tracked per company.
	_ = g.Wait()

	outcome.Succeeded = int(succeeded.Load())
	outcome.Failed = int(failed.Load())
	outcome.Enqueued = int(enqueued.Load())
	outcome.Skipped = int(skipped.Load())

	zap.L().Info("batch: complete",
		zap.Int("total", outcome.Total),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
		zap.Int("enqueued", outcome.Enqueued),
		zap.Int("skipped", outcome.Skipped),
	)
	return outcome, nil
}

// RetryDLQ re-runs transient dead letter entries whose backoff has elapsed.
// Entries that succeed are removed; entries that fail again have their retry
// count and next attempt advanced. Exhausted entries stay queued for
// inspection.
func (p *Pipeline) RetryDLQ(ctx context.Context) (*BatchOutcome, error) {
	// The store hands out only entries that are due and under their retry
	// budget.
	entries, err := p.store.DequeueDLQ(ctx, resilience.DLQFilter{ErrorType: "transient"})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: dequeue dlq")
	}

	outcome := &BatchOutcome{Total: len(entries)}
	if len(entries) == 0 {
		zap.L().Info("batch: no dead letters due for retry")
		return outcome, nil
	}

	concurrency := p.cfg.Batch.MaxConcurrentCompanies
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	zap.L().Info("batch: retrying dead letters",
		zap.Int("entries", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("company", entry.Company.Name),
				zap.String("dlq_id", entry.ID),
				zap.Int("attempt", entry.RetryCount+1),
			)

			if gctx.Err() != nil {
				return nil
			}

			_, runErr := p.Run(gctx, entry.Company)
			if runErr != nil {
				failed.Add(1)
				log.Warn("batch: retry failed", zap.Error(runErr))
				// An attempt cut short by cancellation does not burn a retry.
				if gctx.Err() == nil {
					next := time.Now().UTC().Add(resilience.NextRetryDelay(entry.RetryCount))
					if incErr := p.store.IncrementDLQRetry(gctx, entry.ID, next, runErr.Error()); incErr != nil {
						log.Error("batch: failed to advance dead letter", zap.Error(incErr))
					}
				}
				return nil
			}

			succeeded.Add(1)
			if rmErr := p.store.RemoveDLQ(gctx, entry.ID); rmErr != nil {
				log.Error("batch: failed to remove dead letter", zap.Error(rmErr))
			}
			log.Info("batch: retry succeeded")
			return nil
		})
	}

	_ = g.Wait()

	outcome.Succeeded = int(succeeded.Load())
	outcome.Failed = int(failed.Load())

	zap.L().Info("batch: retry complete",
		zap.Int("total", outcome.Total),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
	)
	return outcome, nil
}

// enqueueFailure records a failed company in the dead letter queue. A fresh
// entry is due immediately; backoff applies between retry attempts. Permanent
// failures are kept with zero retries allowed so they stay visible without
// ever being retried automatically.
func (p *Pipeline) enqueueFailure(ctx context.Context, company model.CompanyIdentity, run *model.Run, runErr error) bool {
	classification := resilience.ClassifyError(runErr)

	maxRetries := p.cfg.Batch.DLQMaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if classification == "permanent" {
		maxRetries = 0
	}

	now := time.Now().UTC()
	entry := resilience.DLQEntry{
		Company:      company,
		Error:        runErr.Error(),
		ErrorType:    classification,
		FailedPhase:  lastFailedPhase(run),
		MaxRetries:   maxRetries,
		NextRetryAt:  now,
		CreatedAt:    now,
		LastFailedAt: now,
	}
	if err := p.store.EnqueueDLQ(ctx, entry); err != nil {
		zap.L().Error("batch: failed to enqueue dead letter",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return false
	}
	return true
}

// lastFailedPhase names the latest failed phase of a run, if any.
func lastFailedPhase(run *model.Run) string {
	if run == nil || run.Result == nil {
		return ""
	}
	var name string
	for _, phase := range run.Result.Phases {
		if phase.Status == model.PhaseStatusFailed {
			name = phase.Name
		}
	}
	return name
}
