package crawl

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/domainmatch"
	"github.com/bluenorth/prospect-cli/internal/extract"
	"github.com/bluenorth/prospect-cli/internal/model"
)

type fakeFetcher struct {
	pages map[string]*model.CrawledPage
	errs  map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*model.CrawledPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if p, ok := f.pages[rawURL]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, eris.Errorf("scrape: no page at %s", rawURL)
}

func (f *fakeFetcher) Probe(context.Context, string) (string, bool) {
	return "", false
}

func (f *fakeFetcher) called(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == rawURL {
			return true
		}
	}
	return false
}

func page(rawURL, text string, links ...model.Link) *model.CrawledPage {
	return &model.CrawledPage{
		URL:        rawURL,
		FinalURL:   rawURL,
		Text:       text,
		Links:      links,
		StatusCode: 200,
	}
}

func newTestCrawler(f *fakeFetcher, opts ...Option) *Crawler {
	return New(f, extract.New(), domainmatch.New(), opts...)
}

func TestCrawlFollowsLinkFamilies(t *testing.T) {
	t.Parallel()

	home := page("https://acme.nl", "Welcome to Acme",
		model.Link{URL: "https://www.linkedin.com/company/acme", Text: "LinkedIn"},
		model.Link{URL: "https://acme.nl/contact", Text: "Contact"},
		model.Link{URL: "https://acme.nl/over-ons", Text: "Over ons"},
		model.Link{URL: "https://acme.nl/team", Text: "Ons team"},
	)
	f := &fakeFetcher{pages: map[string]*model.CrawledPage{
		"https://acme.nl":          home,
		"https://acme.nl/contact":  page("https://acme.nl/contact", "Mail ons: info@acme.nl"),
		"https://acme.nl/over-ons": page("https://acme.nl/over-ons", "Acme bestaat sinds 1952."),
		"https://acme.nl/team":     page("https://acme.nl/team", "Jan van der Berg\nManaging Director"),
	}}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)
	require.Len(t, result.Pages, 4)

	assert.Equal(t, model.PageTypeHome, result.Pages[0].Type)
	assert.Equal(t, model.PageTypeContact, result.Pages[1].Type)
	assert.Equal(t, model.PageTypeAbout, result.Pages[2].Type)
	assert.Equal(t, model.PageTypeTeam, result.Pages[3].Type)

	assert.Equal(t, []string{"info@acme.nl"}, result.Signals.Emails)
	require.Len(t, result.Signals.People, 1)
	assert.Equal(t, "Jan van der Berg", result.Signals.People[0].Name)

	assert.Equal(t, "contact", result.PerPage["https://acme.nl/contact"])
	assert.False(t, f.called("https://www.linkedin.com/company/acme"))
}

func TestCrawlHomepageFailureYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{errs: map[string]error{
		"https://acme.nl": eris.New("scrape: status 503"),
	}}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.nl", result.Website)
	assert.Empty(t, result.Pages)
	assert.True(t, result.Signals.Empty())
}

func TestCrawlSkipsErroringPages(t *testing.T) {
	t.Parallel()

	home := page("https://acme.nl", "Welcome",
		model.Link{URL: "https://acme.nl/contact", Text: "Contact"},
		model.Link{URL: "https://acme.nl/about", Text: "About"},
	)
	f := &fakeFetcher{
		pages: map[string]*model.CrawledPage{
			"https://acme.nl":       home,
			"https://acme.nl/about": page("https://acme.nl/about", "Email us at hello@acme.nl"),
		},
		errs: map[string]error{
			"https://acme.nl/contact": eris.New("scrape: status 500"),
		},
	}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, model.PageTypeHome, result.Pages[0].Type)
	assert.Equal(t, model.PageTypeAbout, result.Pages[1].Type)
	assert.Equal(t, []string{"hello@acme.nl"}, result.Signals.Emails)
}

func TestCrawlFallbackPaths(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]*model.CrawledPage{
		"https://acme.nl": page("https://acme.nl", "Splash page"),
		"https://acme.nl/contactus": page("https://acme.nl/contactus",
			"Tel: 030 123 45 67"),
	}}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)

	// The first two well-known paths 404, the third yields a phone number
	// and the probe stops there.
	assert.True(t, f.called("https://acme.nl/contact"))
	assert.True(t, f.called("https://acme.nl/contact-us"))
	assert.True(t, f.called("https://acme.nl/contactus"))
	assert.False(t, f.called("https://acme.nl/get-in-touch"))

	require.Len(t, result.Pages, 2)
	assert.Equal(t, []string{"030 123 45 67"}, result.Signals.Phones)
	assert.Equal(t, "contact", result.PerPage["https://acme.nl/contactus"])
}

func TestCrawlFallbackSkipsAlreadyVisited(t *testing.T) {
	t.Parallel()

	// The contact link is followed and errors; the fallback must not fetch
	// the same path again and moves on to the next one.
	home := page("https://acme.nl", "Welcome",
		model.Link{URL: "https://acme.nl/contact", Text: "Contact"},
	)
	f := &fakeFetcher{
		pages: map[string]*model.CrawledPage{
			"https://acme.nl": home,
			"https://acme.nl/contact-us": page("https://acme.nl/contact-us",
				"sales@acme.nl"),
		},
		errs: map[string]error{
			"https://acme.nl/contact": eris.New("scrape: status 500"),
		},
	}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)

	f.mu.Lock()
	contactFetches := 0
	for _, c := range f.calls {
		if c == "https://acme.nl/contact" {
			contactFetches++
		}
	}
	f.mu.Unlock()
	assert.Equal(t, 1, contactFetches)
	assert.Equal(t, []string{"sales@acme.nl"}, result.Signals.Emails)
}

func TestCrawlRespectsPageBudget(t *testing.T) {
	t.Parallel()

	home := page("https://acme.nl", "Welcome",
		model.Link{URL: "https://acme.nl/contact", Text: "Contact"},
		model.Link{URL: "https://acme.nl/about", Text: "About"},
		model.Link{URL: "https://acme.nl/team", Text: "Team"},
	)
	f := &fakeFetcher{pages: map[string]*model.CrawledPage{
		"https://acme.nl":         home,
		"https://acme.nl/contact": page("https://acme.nl/contact", "info@acme.nl"),
		"https://acme.nl/about":   page("https://acme.nl/about", "About us"),
		"https://acme.nl/team":    page("https://acme.nl/team", "The team"),
	}}

	result, err := newTestCrawler(f, WithMaxPages(2)).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, model.PageTypeContact, result.Pages[1].Type)
	assert.False(t, f.called("https://acme.nl/about"))
	assert.False(t, f.called("https://acme.nl/team"))
}

func TestCrawlFirstMatchingLinkWins(t *testing.T) {
	t.Parallel()

	home := page("https://acme.nl", "Welcome",
		model.Link{URL: "https://acme.nl/contact-sales", Text: "Talk to sales"},
		model.Link{URL: "https://acme.nl/contact", Text: "Contact"},
	)
	f := &fakeFetcher{pages: map[string]*model.CrawledPage{
		"https://acme.nl":               home,
		"https://acme.nl/contact-sales": page("https://acme.nl/contact-sales", "sales@acme.nl"),
	}}

	result, err := newTestCrawler(f).Crawl(context.Background(), "https://acme.nl")
	require.NoError(t, err)
	assert.False(t, f.called("https://acme.nl/contact"))
	assert.Equal(t, []string{"sales@acme.nl"}, result.Signals.Emails)
}

func TestPageKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pageKey("https://acme.nl"), pageKey("https://acme.nl/"))
	assert.Equal(t, pageKey("https://ACME.nl/contact"), pageKey("https://acme.nl/contact"))
	assert.Equal(t, pageKey("https://acme.nl/contact#form"), pageKey("https://acme.nl/contact"))
	assert.NotEqual(t, pageKey("https://acme.nl/contact"), pageKey("https://acme.nl/about"))
}

func TestSiteRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://acme.nl", siteRoot("https://acme.nl/some/deep/page?x=1"))
	assert.Equal(t, "http://acme.nl", siteRoot("http://acme.nl/"))
	assert.Empty(t, siteRoot("not a url"))
}
