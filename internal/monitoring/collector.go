package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Pipeline metrics (within lookback window).
	PipelineTotal    int     `json:"pipeline_total"`
	PipelineComplete int     `json:"pipeline_complete"`
	PipelineFailed   int     `json:"pipeline_failed"`
	PipelineQueued   int     `json:"pipeline_queued"`
	PipelineFailRate float64 `json:"pipeline_fail_rate"`
	PipelineCostUSD  float64 `json:"pipeline_cost_usd"`
	PipelineAvgScore float64 `json:"pipeline_avg_score"`
	PipelineAvgPages float64 `json:"pipeline_avg_pages"`

	// DLQ depth.
	DLQDepth int `json:"dlq_depth"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of system metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	// Fetch pipeline runs within the window.
	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.PipelineTotal = len(runs)
	var totalCost float64
	var totalScore float64
	var totalPages int
	var scoredRuns int
	var crawledRuns int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.PipelineComplete++
		case model.RunStatusFailed:
			snap.PipelineFailed++
		case model.RunStatusQueued:
			snap.PipelineQueued++
		}
		if r.Result != nil {
			totalCost += r.Result.CostUSD
			if r.Result.PagesCrawled > 0 {
				totalPages += r.Result.PagesCrawled
				crawledRuns++
			}
			if r.Result.Score != nil {
				totalScore += float64(r.Result.Score.Total)
				scoredRuns++
			}
		}
	}

	snap.PipelineCostUSD = totalCost
	finished := snap.PipelineComplete + snap.PipelineFailed
	if finished > 0 {
		snap.PipelineFailRate = float64(snap.PipelineFailed) / float64(finished)
	}
	if scoredRuns > 0 {
		snap.PipelineAvgScore = totalScore / float64(scoredRuns)
	}
	if crawledRuns > 0 {
		snap.PipelineAvgPages = float64(totalPages) / float64(crawledRuns)
	}

	// DLQ depth.
	dlqCount, err := c.store.CountDLQ(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count dlq")
	}
	snap.DLQDepth = dlqCount

	return snap, nil
}
