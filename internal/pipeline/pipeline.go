// Package pipeline orchestrates a discovery run: website resolution, crawl,
// aggregation, scoring, optional narration, and export. Individual phase
// failures are recorded but do not abort the run; the only hard rejection is
// an empty company name.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluenorth/prospect-cli/internal/aggregate"
	"github.com/bluenorth/prospect-cli/internal/config"
	"github.com/bluenorth/prospect-cli/internal/cost"
	"github.com/bluenorth/prospect-cli/internal/extract"
	"github.com/bluenorth/prospect-cli/internal/geo"
	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/resilience"
	"github.com/bluenorth/prospect-cli/internal/scoring"
	"github.com/bluenorth/prospect-cli/internal/store"
	"github.com/bluenorth/prospect-cli/pkg/anthropic"
)

// WebsiteResolver finds a company's official website. A nil result with nil
// error is the terminal not-found answer.
type WebsiteResolver interface {
	Resolve(ctx context.Context, company model.CompanyIdentity) (*model.DiscoveredWebsite, error)
}

// PageCrawler fetches and extracts a small set of pages from a website.
type PageCrawler interface {
	Crawl(ctx context.Context, website string) (*model.CrawlResult, error)
}

// KnowledgeSource builds the stored-posting context for a company.
// A nil context with nil error means the store holds nothing for it.
type KnowledgeSource interface {
	Context(ctx context.Context, companyName string) (*model.KnowledgeContext, error)
}

// NarrativeWriter produces the advisory AI text attached to a record.
type NarrativeWriter interface {
	Summary(ctx context.Context, rec *model.ContactRecord, know *model.KnowledgeContext) (string, anthropic.TokenUsage, error)
	Brief(ctx context.Context, id model.CompanyIdentity) (string, error)
	Model() string
}

// OfficeLocator geocodes a contact address. Nil means no match; failures are
// handled inside the locator.
type OfficeLocator interface {
	Locate(ctx context.Context, address, countryHint string) *geo.Office
}

// Exporter delivers a finished result to an external system.
type Exporter interface {
	Name() string
	Export(ctx context.Context, company model.CompanyIdentity, result *model.RunResult) error
}

// Pipeline runs the discovery phases for one company at a time.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	resolver   WebsiteResolver
	crawler    PageCrawler
	knowledge  KnowledgeSource
	aggregator *aggregate.Aggregator
	engine     *scoring.Engine
	narrator   NarrativeWriter
	locator    OfficeLocator
	exporters  []Exporter
	costCalc   *cost.Calculator
	extractor  *extract.Extractor

	deadline time.Duration
}

// New creates a Pipeline. The narrator and locator may be nil, and exporters
// may be empty; the corresponding phases are then skipped.
func New(
	cfg *config.Config,
	st store.Store,
	resolver WebsiteResolver,
	crawler PageCrawler,
	know KnowledgeSource,
	agg *aggregate.Aggregator,
	engine *scoring.Engine,
	narrator NarrativeWriter,
	locator OfficeLocator,
	exporters []Exporter,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		resolver:   resolver,
		crawler:    crawler,
		knowledge:  know,
		aggregator: agg,
		engine:     engine,
		narrator:   narrator,
		locator:    locator,
		exporters:  exporters,
		costCalc:   cost.NewCalculator(cfg.Rates()),
		extractor:  extract.New(),
		deadline:   time.Duration(cfg.Pipeline.DeadlineSecs) * time.Second,
	}
}

// Run executes the full discovery pipeline for a single company and returns
// the persisted run. A run that finds nothing still completes; the result
// explains what was and wasn't found. When the run deadline expires mid-way
// the result carries whatever was gathered and names the skipped phases.
func (p *Pipeline) Run(ctx context.Context, company model.CompanyIdentity) (*model.Run, error) {
	if !company.Valid() {
		return nil, eris.New("pipeline: company name is required")
	}

	log := zap.L().With(zap.String("company", company.Name))
	log.Info("pipeline: starting discovery")

	run, err := p.store.CreateRun(ctx, company)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	result := &model.RunResult{}

	// The deadline bounds network phases only. Store writes use the caller's
	// context so a partial result can still be persisted after expiry.
	runCtx := ctx
	if p.deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}
	deadlineHit := func() bool { return runCtx.Err() != nil && ctx.Err() == nil }

	setStatus := func(status model.RunStatus) {
		run.Status = status
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	// Phase tracking helper with mutex for concurrent access.
	var phasesMu sync.Mutex
	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
		phase, phaseErr := p.store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		switch {
		case fnErr != nil:
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		case phaseResult.Status == "":
			// A phase may mark itself skipped; anything else is complete.
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			_ = p.store.CompletePhase(ctx, phase.ID, phaseResult)
		}
		phasesMu.Lock()
		result.Phases = append(result.Phases, *phaseResult)
		phasesMu.Unlock()
		return phaseResult
	}

	skipPhase := func(name, reason string) {
		trackPhase(name, func() (*model.PhaseResult, error) {
			return &model.PhaseResult{
				Status:   model.PhaseStatusSkipped,
				Metadata: map[string]any{"reason": reason},
			}, nil
		})
	}
	var skippedByDeadline []string
	skipForDeadline := func(name string) {
		skippedByDeadline = append(skippedByDeadline, name)
		skipPhase(name, "deadline exceeded")
	}

	// ===== Resolution + knowledge lookup (independent, run in parallel) =====
	setStatus(model.RunStatusResolving)

	var website *model.DiscoveredWebsite
	var know *model.KnowledgeContext

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		trackPhase("resolve", func() (*model.PhaseResult, error) {
			site, resolveErr := p.resolver.Resolve(gCtx, company)
			if resolveErr != nil {
				return nil, resolveErr
			}
			website = site
			meta := map[string]any{"found": site != nil}
			if site != nil {
				meta["method"] = string(site.DiscoveryMethod)
				meta["confidence"] = string(site.MatchConfidence)
			}
			return &model.PhaseResult{Metadata: meta}, nil
		})
		return nil
	})

	g.Go(func() error {
		trackPhase("knowledge", func() (*model.PhaseResult, error) {
			if p.knowledge == nil {
				return &model.PhaseResult{
					Status:   model.PhaseStatusSkipped,
					Metadata: map[string]any{"reason": "no knowledge source"},
				}, nil
			}
			kc, knowErr := p.knowledge.Context(gCtx, company.Name)
			if knowErr != nil {
				return nil, knowErr
			}
			know = kc
			meta := map[string]any{"postings": 0}
			if kc != nil {
				meta["postings"] = kc.SourceCount
				meta["skills"] = len(kc.TopSkills)
			}
			return &model.PhaseResult{Metadata: meta}, nil
		})
		return nil
	})

	// Phase errors are tracked per-phase and never abort the run.
	_ = g.Wait()

	if website != nil {
		result.Website = website.URL
		result.DiscoveryMethod = website.DiscoveryMethod
	}

	// ===== Crawl =====
	var crawled *model.CrawlResult

	switch {
	case website == nil:
		skipPhase("crawl", "no website resolved")
	case deadlineHit():
		skipForDeadline("crawl")
	default:
		setStatus(model.RunStatusCrawling)
		trackPhase("crawl", func() (*model.PhaseResult, error) {
			cr, fromCache, crawlErr := p.crawlSite(runCtx, website.URL)
			if crawlErr != nil {
				return nil, crawlErr
			}
			crawled = cr
			return &model.PhaseResult{
				Metadata: map[string]any{
					"pages_count": len(cr.Pages),
					"from_cache":  fromCache,
				},
			}, nil
		})
	}
	if crawled != nil {
		result.PagesCrawled = len(crawled.Pages)
	}

	// A deadline that expired before anything was gathered leaves no partial
	// worth keeping. FailRun runs after the result save because the save also
	// flips status to complete.
	if deadlineHit() && website == nil && know == nil {
		msg := "deadline exceeded before any data was collected"
		result.Error = msg
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
		if failErr := p.store.FailRun(ctx, run.ID, msg); failErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
		}
		run.Status = model.RunStatusFailed
		run.Error = msg
		run.Result = result
		return run, resilience.NewTransientError(eris.New("pipeline: "+msg), 0)
	}

	// ===== Aggregate (pure; always runs on whatever was gathered) =====
	setStatus(model.RunStatusAggregating)

	var rec *model.ContactRecord
	trackPhase("aggregate", func() (*model.PhaseResult, error) {
		rec = p.aggregator.Build(company, website, crawled, know)

		meta := map[string]any{
			"has_contacts":    rec.HasContacts(),
			"decision_makers": len(rec.DecisionMakers),
			"data_sources":    len(rec.DataSources),
		}
		if p.locator != nil && rec.GeneralContact.Address != "" {
			if office := p.locator.Locate(runCtx, rec.GeneralContact.Address, company.Location); office != nil {
				coords := office.Coordinates()
				rec.OfficeLocation = &coords
				meta["geocoded"] = true
			}
		}
		return &model.PhaseResult{Metadata: meta}, nil
	})
	result.Contact = rec

	// ===== Score =====
	setStatus(model.RunStatusScoring)

	trackPhase("score", func() (*model.PhaseResult, error) {
		record, jobCount := p.scoreRecord(company, know, crawled)
		breakdown := p.engine.Score(record, jobCount)
		result.Score = &breakdown
		return &model.PhaseResult{
			Metadata: map[string]any{
				"total":     breakdown.Total,
				"category":  string(breakdown.Category),
				"job_count": jobCount,
				"tech":      breakdown.Tech,
			},
		}, nil
	})

	// ===== Narrate (advisory; disabled by default) =====
	narrate := p.narrator != nil && (p.cfg.Pipeline.Narrate || p.cfg.Pipeline.Brief)

	switch {
	case !narrate:
		skipPhase("narrate", "narration disabled")
	case deadlineHit():
		skipForDeadline("narrate")
	default:
		trackPhase("narrate", func() (*model.PhaseResult, error) {
			meta := map[string]any{}
			if p.cfg.Pipeline.Narrate {
				summary, usage, narrErr := p.narrator.Summary(runCtx, rec, know)
				if narrErr != nil {
					return &model.PhaseResult{Metadata: meta}, narrErr
				}
				rec.Narrative = summary
				result.CostUSD += p.costCalc.Claude(
					p.narrator.Model(),
					int(usage.InputTokens), int(usage.OutputTokens),
					int(usage.CacheCreationInputTokens), int(usage.CacheReadInputTokens),
				)
				meta["summary"] = summary != ""
				meta["input_tokens"] = usage.InputTokens
				meta["output_tokens"] = usage.OutputTokens
			}
			if p.cfg.Pipeline.Brief {
				brief, briefErr := p.narrator.Brief(runCtx, company)
				if briefErr != nil {
					return &model.PhaseResult{Metadata: meta}, briefErr
				}
				rec.Brief = brief
				result.CostUSD += p.costCalc.PerplexityQuery()
				meta["brief"] = brief != ""
			}
			return &model.PhaseResult{Metadata: meta}, nil
		})
	}

	// ===== Export =====
	switch {
	case len(p.exporters) == 0:
		skipPhase("export", "no targets configured")
	case deadlineHit():
		skipForDeadline("export")
	default:
		setStatus(model.RunStatusExporting)
		trackPhase("export", func() (*model.PhaseResult, error) {
			var exported []string
			var firstErr error
			for _, target := range p.exporters {
				if expErr := target.Export(runCtx, company, result); expErr != nil {
					log.Error("pipeline: export target failed",
						zap.String("target", target.Name()),
						zap.Error(expErr),
					)
					if firstErr == nil {
						firstErr = expErr
					}
					continue
				}
				exported = append(exported, target.Name())
			}
			return &model.PhaseResult{
				Metadata: map[string]any{"targets": exported},
			}, firstErr
		})
	}

	// ===== Finalize =====
	if company.KnownWebsite == "" && p.cfg.Serp.Key != "" {
		result.CostUSD += p.costCalc.Search()
	}
	if len(skippedByDeadline) > 0 {
		result.Error = "deadline exceeded; skipped: " + strings.Join(skippedByDeadline, ", ")
	}

	setStatus(model.RunStatusComplete)

	if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}
	run.Result = result

	score := 0
	if result.Score != nil {
		score = result.Score.Total
	}
	log.Info("pipeline: discovery complete",
		zap.String("run_id", run.ID),
		zap.String("website", result.Website),
		zap.Bool("has_contacts", rec != nil && rec.HasContacts()),
		zap.Int("score", score),
		zap.Float64("cost_usd", result.CostUSD),
	)

	return run, nil
}

// scoreRecord assembles the attribute snapshot the scoring engine consumes
// from the knowledge context plus rubric-vocabulary mentions in crawled page
// text. Fields the discovery run cannot observe stay empty and score at their
// unknown defaults.
func (p *Pipeline) scoreRecord(company model.CompanyIdentity, know *model.KnowledgeContext, crawled *model.CrawlResult) (model.CompanyRecord, int) {
	record := model.CompanyRecord{Name: company.Name}
	jobCount := 0

	seen := make(map[string]bool)
	addTech := func(terms []string) {
		for _, term := range terms {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			record.TechStack = append(record.TechStack, term)
		}
	}

	if know != nil {
		addTech(know.TopSkills)
		jobCount = know.SourceCount
		record.FirstObservedAt = know.LatestPostingAt
	}
	if crawled != nil {
		var mentions []string
		for _, page := range crawled.Pages {
			mentions = append(mentions, p.engine.TechMentions(page.Text)...)
		}
		// Sorted so the stack is stable regardless of page order.
		sort.Strings(mentions)
		addTech(mentions)
	}

	record.JobCount = jobCount
	return record, jobCount
}
