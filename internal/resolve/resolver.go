// Package resolve discovers a company's official website through a tiered
// search strategy: a primary search API, a scrape-based fallback search, and
// finally domain-pattern guessing. Tiers run strictly in order and each is
// independently failure-tolerant; exhausting all of them is a valid outcome,
// not an error.
package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/domainmatch"
	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/resilience"
	"github.com/bluenorth/prospect-cli/internal/scrape"
	"github.com/bluenorth/prospect-cli/pkg/duck"
	"github.com/bluenorth/prospect-cli/pkg/serp"
)

// Resolver finds company websites. Construct with New.
type Resolver struct {
	search   serp.Client
	fallback duck.Client
	prober   scrape.Client
	matcher  *domainmatch.Matcher
	breakers *resilience.BreakerSet

	searchTimeout time.Duration
	probeTimeout  time.Duration
	maxResults    int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchTimeout bounds each search-tier call.
func WithSearchTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.searchTimeout = d }
}

// WithProbeTimeout bounds each domain-guess probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.probeTimeout = d }
}

// WithMaxResults caps how many primary search results are requested.
func WithMaxResults(n int) Option {
	return func(r *Resolver) { r.maxResults = n }
}

// WithBreakers shares a breaker set with other components.
func WithBreakers(b *resilience.BreakerSet) Option {
	return func(r *Resolver) { r.breakers = b }
}

// New creates a Resolver. Either search client may be nil, which skips that
// tier; the prober may be nil to skip domain guessing.
func New(search serp.Client, fallback duck.Client, prober scrape.Client, matcher *domainmatch.Matcher, opts ...Option) *Resolver {
	r := &Resolver{
		search:        search,
		fallback:      fallback,
		prober:        prober,
		matcher:       matcher,
		breakers:      resilience.NewBreakerSet(resilience.DefaultBreakerConfig()),
		searchTimeout: 15 * time.Second,
		probeTimeout:  8 * time.Second,
		maxResults:    10,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the company's official website. A nil result with a nil
// error means no website could be discovered after exhausting every tier;
// callers must treat that as a terminal answer. The only error returned
// before I/O is an empty company name.
func (r *Resolver) Resolve(ctx context.Context, company model.CompanyIdentity) (*model.DiscoveredWebsite, error) {
	if !company.Valid() {
		return nil, eris.New("resolve: company name is required")
	}

	if known := strings.TrimSpace(company.KnownWebsite); known != "" {
		return &model.DiscoveredWebsite{
			URL:             ensureScheme(known),
			DiscoveryMethod: model.DiscoveryKnownWebsite,
			MatchConfidence: model.MatchHigh,
		}, nil
	}

	site, tier, ok := resilience.FirstSuccess(ctx, "website", []resilience.Attempt[*model.DiscoveredWebsite]{
		{Name: "primary-search", Run: r.primaryTier(company)},
		{Name: "fallback-search", Run: r.fallbackTier(company)},
		{Name: "domain-guess", Run: r.guessTier(company)},
	})
	if !ok {
		zap.L().Info("resolve: no website found",
			zap.String("company", company.Name),
		)
		return nil, nil
	}

	zap.L().Info("resolve: website discovered",
		zap.String("company", company.Name),
		zap.String("url", site.URL),
		zap.String("tier", tier),
	)
	return site, nil
}

// primaryTier queries the search API and accepts the first result that
// passes the domain matcher, in rank order.
func (r *Resolver) primaryTier(company model.CompanyIdentity) func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
	return func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
		if r.search == nil {
			return nil, false, nil
		}
		sctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()

		opts := []serp.SearchOption{serp.WithMaxResults(r.maxResults)}
		if company.Location != "" {
			opts = append(opts, serp.WithLocation(company.Location))
		}

		resp, err := resilience.BreakerVal(sctx, r.breakers.Get("serp"), func(ctx context.Context) (*serp.SearchResponse, error) {
			return r.search.Search(ctx, company.Name, opts...)
		})
		if err != nil {
			return nil, false, eris.Wrap(err, "resolve: primary search")
		}

		for _, res := range resp.Results {
			if r.matcher.Acceptable(res.URL, company) {
				return &model.DiscoveredWebsite{
					URL:             res.URL,
					DiscoveryMethod: model.DiscoveryPrimarySearch,
					MatchConfidence: model.MatchHigh,
				}, true, nil
			}
		}
		return nil, false, nil
	}
}

// fallbackTier issues up to three query variants against the scrape-based
// search source. A failing variant is logged and the next one tried.
func (r *Resolver) fallbackTier(company model.CompanyIdentity) func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
	return func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
		if r.fallback == nil {
			return nil, false, nil
		}

		variants := []string{
			company.Name,
			company.Name + " official website",
		}
		if company.Location != "" {
			variants = append(variants, company.Name+" "+company.Location)
		}

		var lastErr error
		for _, query := range variants {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			sctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
			results, err := resilience.BreakerVal(sctx, r.breakers.Get("duck"), func(ctx context.Context) ([]duck.Result, error) {
				return r.fallback.Search(ctx, query)
			})
			cancel()
			if err != nil {
				lastErr = err
				zap.L().Debug("resolve: fallback search variant failed",
					zap.String("query", query),
					zap.Error(err),
				)
				continue
			}

			for _, res := range results {
				if r.matcher.Acceptable(res.URL, company) {
					return &model.DiscoveredWebsite{
						URL:             res.URL,
						DiscoveryMethod: model.DiscoveryFallbackSearch,
						MatchConfidence: model.MatchHigh,
					}, true, nil
				}
			}
		}
		return nil, false, lastErr
	}
}

// guessTier probes candidate domains built from the company slug, accepting
// the first that answers. The final URL after redirects is kept so a bare
// guess can land on the canonical www host.
func (r *Resolver) guessTier(company model.CompanyIdentity) func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
	return func(ctx context.Context) (*model.DiscoveredWebsite, bool, error) {
		if r.prober == nil {
			return nil, false, nil
		}

		for _, host := range guessCandidates(company) {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			pctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
			final, ok := r.prober.Probe(pctx, "https://"+host)
			cancel()
			if !ok {
				continue
			}
			// A guess that redirects onto a parked or blocklisted host is
			// not the company's site.
			if r.matcher.Blocked(domainmatch.Host(final)) {
				continue
			}
			return &model.DiscoveredWebsite{
				URL:             final,
				DiscoveryMethod: model.DiscoveryDomainGuess,
				MatchConfidence: model.MatchLow,
			}, true, nil
		}
		return nil, false, nil
	}
}

// guessCandidates builds the prioritized list of domains to probe: the
// global variant first, then the first significant word across the location
// and common TLDs, then the full slug across the same.
func guessCandidates(company model.CompanyIdentity) []string {
	slug := domainmatch.Slug(company.Name)
	if slug == "" {
		return nil
	}
	first := slug
	if words := domainmatch.SignificantWords(company.Name); len(words) > 0 {
		first = words[0]
	}
	cc := domainmatch.CountryTLD(company.Location)

	var hosts []string
	seen := make(map[string]bool)
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			hosts = append(hosts, h)
		}
	}

	add(slug + "-global.com")
	if cc != "" {
		add(first + "." + cc)
	}
	add(first + ".com")
	add(first + ".io")
	if cc != "" {
		add(slug + "." + cc)
	}
	add(slug + ".com")
	add(slug + ".io")
	add(slug + ".co")

	return hosts
}

func ensureScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
