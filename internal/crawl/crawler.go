// Package crawl walks a bounded set of contact-bearing pages on a company
// website. The homepage anchors the crawl; links matching the contact, about,
// and team families are followed on the same site only, and well-known
// contact paths are probed as a last resort when no page yielded a signal.
package crawl

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluenorth/prospect-cli/internal/domainmatch"
	"github.com/bluenorth/prospect-cli/internal/extract"
	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/scrape"
)

// hardPageCap bounds any single site crawl regardless of configuration.
const hardPageCap = 10

type family struct {
	pageType model.PageType
	keywords []string
}

// linkFamilies are scanned in priority order. A link matches a family when
// its URL or anchor text contains one of the keywords.
var linkFamilies = []family{
	{
		pageType: model.PageTypeContact,
		keywords: []string{"contact", "kontakt", "get-in-touch", "getintouch", "neem contact"},
	},
	{
		pageType: model.PageTypeAbout,
		keywords: []string{"about", "over-ons", "overons", "over ons", "who-we-are", "company"},
	},
	{
		pageType: model.PageTypeTeam,
		keywords: []string{"team", "people", "medewerkers", "leadership", "management", "staff"},
	},
}

// ContactPaths are the well-known locations probed in order when the
// followed pages produced no signal. The aggregator also surfaces them as
// manual suggestions on contactless records.
var ContactPaths = []string{
	"/contact",
	"/contact-us",
	"/contactus",
	"/get-in-touch",
	"/about/contact",
}

// Crawler fetches and classifies pages from a single website.
type Crawler struct {
	fetcher     scrape.Client
	extractor   *extract.Extractor
	matcher     *domainmatch.Matcher
	maxPages    int
	pageTimeout time.Duration
	concurrency int
}

// Option adjusts crawler behavior.
type Option func(*Crawler)

// WithMaxPages lowers the page budget. Values above the hard cap are clamped.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n > 0 && n <= hardPageCap {
			c.maxPages = n
		}
	}
}

// WithPageTimeout bounds each individual page fetch.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.pageTimeout = d
		}
	}
}

// WithConcurrency sets how many pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Crawler around a page fetcher.
func New(fetcher scrape.Client, extractor *extract.Extractor, matcher *domainmatch.Matcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     fetcher,
		extractor:   extractor,
		matcher:     matcher,
		maxPages:    hardPageCap,
		pageTimeout: 10 * time.Second,
		concurrency: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl fetches the homepage and its contact-bearing neighbors and returns
// the pages with their merged signals. A homepage that cannot be fetched
// yields an empty result, not an error: the site exists but gave us nothing.
func (c *Crawler) Crawl(ctx context.Context, website string) (*model.CrawlResult, error) {
	result := &model.CrawlResult{
		Website:   website,
		PerPage:   make(map[string]string),
		CrawledAt: time.Now().UTC(),
	}

	home, err := c.fetchPage(ctx, website, model.PageTypeHome)
	if err != nil {
		zap.L().Warn("crawl: homepage fetch failed",
			zap.String("website", website),
			zap.Error(err))
		return result, nil
	}

	visited := map[string]bool{
		pageKey(website):       true,
		pageKey(home.FinalURL): true,
	}
	c.recordPage(result, home)

	selections := c.selectLinks(home, visited)
	pages := c.fetchConcurrently(ctx, selections)
	for _, p := range pages {
		c.recordPage(result, p)
	}

	if result.Signals.Empty() {
		c.fallbackCrawl(ctx, result, home, visited)
	}
	return result, nil
}

type selection struct {
	url      string
	pageType model.PageType
}

// selectLinks picks at most one same-site link per family, scanning links in
// document order so the choice is deterministic.
func (c *Crawler) selectLinks(home *model.CrawledPage, visited map[string]bool) []selection {
	siteHost := domainmatch.Host(home.FinalURL)
	budget := c.maxPages - 1

	var out []selection
	for _, fam := range linkFamilies {
		if len(out) >= budget {
			break
		}
		for _, link := range home.Links {
			if !matchesFamily(link, fam) {
				continue
			}
			if !strings.HasPrefix(strings.ToLower(link.URL), "http") {
				continue
			}
			if !c.matcher.SameSite(link.URL, siteHost) {
				continue
			}
			key := pageKey(link.URL)
			if visited[key] {
				continue
			}
			visited[key] = true
			out = append(out, selection{url: link.URL, pageType: fam.pageType})
			break
		}
	}
	return out
}

func matchesFamily(link model.Link, fam family) bool {
	target := strings.ToLower(link.URL)
	text := strings.ToLower(link.Text)
	for _, kw := range fam.keywords {
		if strings.Contains(target, kw) || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// fetchConcurrently fetches the selected pages with bounded parallelism and
// returns them in selection order. Pages that error are dropped.
func (c *Crawler) fetchConcurrently(ctx context.Context, selections []selection) []*model.CrawledPage {
	if len(selections) == 0 {
		return nil
	}

	fetched := make([]*model.CrawledPage, len(selections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, sel := range selections {
		g.Go(func() error {
			page, err := c.fetchPage(gctx, sel.url, sel.pageType)
			if err != nil {
				zap.L().Debug("crawl: page fetch skipped",
					zap.String("url", sel.url),
					zap.Error(err))
				return nil
			}
			fetched[i] = page
			return nil
		})
	}
	// Workers only report nil; Wait is for completion.
	_ = g.Wait()

	var out []*model.CrawledPage
	for _, p := range fetched {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// fallbackCrawl probes well-known contact paths, stopping at the first page
// that yields any signal.
func (c *Crawler) fallbackCrawl(ctx context.Context, result *model.CrawlResult, home *model.CrawledPage, visited map[string]bool) {
	root := siteRoot(home.FinalURL)
	if root == "" {
		return
	}
	for _, path := range ContactPaths {
		if len(result.Pages) >= c.maxPages {
			return
		}
		target := root + path
		key := pageKey(target)
		if visited[key] {
			continue
		}
		visited[key] = true

		page, err := c.fetchPage(ctx, target, model.PageTypeContact)
		if err != nil {
			continue
		}
		c.recordPage(result, page)
		if !result.Signals.Empty() {
			return
		}
	}
}

// fetchPage fetches one page under the per-page timeout and runs extraction.
func (c *Crawler) fetchPage(ctx context.Context, rawURL string, pageType model.PageType) (*model.CrawledPage, error) {
	pctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	page, err := c.fetcher.Fetch(pctx, rawURL)
	if err != nil {
		return nil, err
	}
	page.Type = pageType
	return page, nil
}

func (c *Crawler) recordPage(result *model.CrawlResult, page *model.CrawledPage) {
	if len(result.Pages) >= c.maxPages {
		return
	}
	result.Pages = append(result.Pages, *page)
	result.PerPage[page.URL] = string(page.Type)
	result.Signals = extract.Merge(result.Signals, c.extractor.Extract(*page))
}

// pageKey normalizes a URL for visited tracking: no fragment, no trailing
// slash, lowercase host.
func pageKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimRight(rawURL, "/")
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return strings.TrimRight(u.String(), "/")
}

func siteRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}
