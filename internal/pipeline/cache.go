package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/extract"
	"github.com/bluenorth/prospect-cli/internal/model"
)

// crawlSite returns the crawl for a website, serving from the short-TTL
// store cache when a fresh copy exists. Cache read and write failures are
// logged and fall through to a live crawl.
func (p *Pipeline) crawlSite(ctx context.Context, website string) (*model.CrawlResult, bool, error) {
	ttl := time.Duration(p.cfg.Crawl.CacheTTLHours) * time.Hour

	if ttl > 0 {
		cached, err := p.store.GetCachedCrawl(ctx, website)
		if err != nil {
			zap.L().Warn("pipeline: crawl cache read failed",
				zap.String("website", website),
				zap.Error(err),
			)
		} else if cached != nil {
			zap.L().Debug("pipeline: crawl served from cache",
				zap.String("website", website),
				zap.Int("pages", len(cached.Pages)),
			)
			return p.rebuildCached(cached), true, nil
		}
	}

	cr, err := p.crawler.Crawl(ctx, website)
	if err != nil {
		return nil, false, err
	}
	if ttl > 0 && cr != nil && len(cr.Pages) > 0 {
		if cacheErr := p.store.SetCachedCrawl(ctx, website, cr.Pages, ttl); cacheErr != nil {
			zap.L().Warn("pipeline: crawl cache write failed",
				zap.String("website", website),
				zap.Error(cacheErr),
			)
		}
	}
	return cr, false, nil
}

// rebuildCached reconstructs a CrawlResult from cached pages. Signals are
// re-extracted rather than stored, so extraction improvements apply to
// cached content too.
func (p *Pipeline) rebuildCached(cached *model.CrawlCache) *model.CrawlResult {
	result := &model.CrawlResult{
		Website:   cached.Website,
		PerPage:   make(map[string]string),
		CrawledAt: cached.CrawledAt,
	}
	for _, page := range cached.Pages {
		result.Pages = append(result.Pages, page)
		result.PerPage[page.URL] = string(page.Type)
		result.Signals = extract.Merge(result.Signals, p.extractor.Extract(page))
	}
	return result
}
