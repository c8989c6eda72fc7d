package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/aggregate"
	"github.com/bluenorth/prospect-cli/internal/crawl"
	"github.com/bluenorth/prospect-cli/internal/domainmatch"
	"github.com/bluenorth/prospect-cli/internal/export"
	"github.com/bluenorth/prospect-cli/internal/extract"
	"github.com/bluenorth/prospect-cli/internal/geo"
	"github.com/bluenorth/prospect-cli/internal/knowledge"
	"github.com/bluenorth/prospect-cli/internal/narrate"
	"github.com/bluenorth/prospect-cli/internal/pipeline"
	"github.com/bluenorth/prospect-cli/internal/resilience"
	"github.com/bluenorth/prospect-cli/internal/resolve"
	"github.com/bluenorth/prospect-cli/internal/scoring"
	"github.com/bluenorth/prospect-cli/internal/scrape"
	"github.com/bluenorth/prospect-cli/internal/store"
	anthropicpkg "github.com/bluenorth/prospect-cli/pkg/anthropic"
	"github.com/bluenorth/prospect-cli/pkg/duck"
	"github.com/bluenorth/prospect-cli/pkg/geocode"
	"github.com/bluenorth/prospect-cli/pkg/notion"
	"github.com/bluenorth/prospect-cli/pkg/perplexity"
	"github.com/bluenorth/prospect-cli/pkg/serp"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the discover/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Notion   notion.Client // nil when Notion is not configured
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, search and crawl clients, optional
// narrator/locator, export targets, and builds the Pipeline. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	matcher := domainmatch.New()

	serpClient := serp.NewClient(cfg.Serp.Key,
		serp.WithBaseURL(cfg.Serp.BaseURL),
		serp.WithEngine(cfg.Serp.Engine),
	)
	duckClient := duck.NewClient(duck.WithBaseURL(cfg.Duck.BaseURL))
	prober := scrape.NewHTTPClient(
		scrape.WithTimeout(time.Duration(cfg.Resolve.ProbeTimeoutSecs)*time.Second),
		scrape.WithHostRateLimit(cfg.Crawl.HostRateLimit),
	)

	resolver := resolve.New(serpClient, duckClient, prober, matcher,
		resolve.WithSearchTimeout(time.Duration(cfg.Resolve.SearchTimeoutSecs)*time.Second),
		resolve.WithProbeTimeout(time.Duration(cfg.Resolve.ProbeTimeoutSecs)*time.Second),
		resolve.WithMaxResults(cfg.Resolve.SearchMaxResults),
		resolve.WithBreakers(resilience.NewBreakerSet(resilience.DefaultBreakerConfig())),
	)

	fetcher := scrape.NewHTTPClient(
		scrape.WithTimeout(time.Duration(cfg.Crawl.PageTimeoutSecs)*time.Second),
		scrape.WithHostRateLimit(cfg.Crawl.HostRateLimit),
	)
	crawler := crawl.New(fetcher, extract.New(), matcher,
		crawl.WithMaxPages(cfg.Crawl.MaxPages),
		crawl.WithPageTimeout(time.Duration(cfg.Crawl.PageTimeoutSecs)*time.Second),
		crawl.WithConcurrency(cfg.Crawl.MaxConcurrent),
	)

	// Narrator is advisory and only built when an Anthropic key is present.
	var narrator pipeline.NarrativeWriter
	if cfg.Anthropic.Key != "" {
		pplxClient := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		narrator = narrate.New(anthropicpkg.NewClient(cfg.Anthropic.Key), pplxClient,
			narrate.WithModel(cfg.Anthropic.Model),
			narrate.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
		)
	} else {
		zap.L().Debug("PROSPECT_ANTHROPIC_KEY not set, narrate phase disabled")
	}

	var locator pipeline.OfficeLocator
	if cfg.Geocode.Enabled {
		geoOpts := []geocode.Option{geocode.WithBaseURL(cfg.Geocode.BaseURL)}
		if cfg.Geocode.Email != "" {
			geoOpts = append(geoOpts, geocode.WithUserAgent(fmt.Sprintf("prospect-cli (%s)", cfg.Geocode.Email)))
		}
		locator = geo.NewLocator(geocode.NewClient(geoOpts...))
		zap.L().Info("office geocoding enabled")
	}

	notionClient, exporters, err := buildExporters()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p := pipeline.New(cfg, st,
		resolver,
		crawler,
		knowledge.NewProvider(st),
		aggregate.New(),
		scoring.NewEngine(scoring.DefaultRubric()),
		narrator,
		locator,
		exporters,
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Notion:   notionClient,
	}, nil
}

// buildExporters assembles the configured export targets. Notion needs a
// token and a lead database ID; Salesforce needs JWT credentials. Neither is
// required, a run without exporters simply skips the export phase.
func buildExporters() (notion.Client, []pipeline.Exporter, error) {
	var notionClient notion.Client
	var exporters []pipeline.Exporter

	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token)
		if cfg.Notion.LeadDB != "" {
			exporters = append(exporters, export.NewNotionLeads(notionClient, cfg.Notion.LeadDB))
		} else {
			zap.L().Warn("notion token set but PROSPECT_NOTION_LEAD_DB missing, lead export disabled")
		}
	} else {
		zap.L().Debug("notion not configured, lead export disabled")
	}

	if cfg.Salesforce.ClientID != "" {
		sfClient, err := initSalesforce()
		if err != nil {
			return nil, nil, err
		}
		exporters = append(exporters, export.NewSalesforceSync(sfClient))
	} else {
		zap.L().Debug("salesforce not configured, account sync disabled")
	}

	return notionClient, exporters, nil
}
