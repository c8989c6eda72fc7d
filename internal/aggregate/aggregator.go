// Package aggregate assembles the signals gathered by the earlier pipeline
// phases into one contact record. Merging is first-value-wins: signals
// arrive in crawl order, so the homepage and contact page outrank deeper
// pages. A record is produced even when nothing was found; its notes then
// explain what happened and which pages are worth checking by hand.
package aggregate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bluenorth/prospect-cli/internal/crawl"
	"github.com/bluenorth/prospect-cli/internal/model"
)

// Source labels recorded on ContactRecord.DataSources.
const (
	SourceWebsite   = "website"
	SourceKnowledge = "knowledge-store"
)

// Aggregator builds contact records.
type Aggregator struct{}

// New creates an Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Build merges resolution, crawl, and knowledge-store inputs into a contact
// record. Any of the inputs may be nil; the record degrades accordingly and
// always carries an explanatory note.
func (a *Aggregator) Build(company model.CompanyIdentity, site *model.DiscoveredWebsite, crawled *model.CrawlResult, know *model.KnowledgeContext) *model.ContactRecord {
	rec := &model.ContactRecord{
		Company: strings.TrimSpace(company.Name),
	}
	if site != nil {
		rec.Website = site.URL
	}

	var signals model.ExtractedSignals
	if crawled != nil {
		signals = crawled.Signals
		if len(crawled.Pages) > 0 {
			rec.DataSources = append(rec.DataSources, SourceWebsite)
		}
	}

	rec.GeneralContact = model.GeneralContact{
		Email:   first(signals.Emails),
		Phone:   first(signals.Phones),
		Address: first(signals.Addresses),
	}
	rec.DecisionMakers = signals.People
	rec.Description = signals.Description
	rec.SocialLinks = signals.SocialLinks

	if know != nil && know.SourceCount > 0 {
		if rec.Description == "" {
			rec.Description = know.Excerpt
		}
		rec.DataSources = append(rec.DataSources, SourceKnowledge)
	}

	if !rec.HasContacts() && rec.Website != "" {
		rec.SuggestedPages = suggestPages(rec.Website, crawled)
	}
	rec.Notes = notesFor(rec, crawled)
	return rec
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// suggestPages lists well-known contact URLs that the crawl did not visit,
// for manual follow-up on a contactless record.
func suggestPages(website string, crawled *model.CrawlResult) []string {
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return nil
	}
	root := u.Scheme + "://" + u.Host

	visited := make(map[string]bool)
	if crawled != nil {
		for pageURL := range crawled.PerPage {
			visited[strings.TrimRight(strings.ToLower(pageURL), "/")] = true
		}
	}

	var out []string
	for _, path := range crawl.ContactPaths {
		candidate := root + path
		if visited[strings.ToLower(candidate)] {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// notesFor writes the mandatory human-readable summary of the aggregation
// outcome.
func notesFor(rec *model.ContactRecord, crawled *model.CrawlResult) string {
	pages := 0
	if crawled != nil {
		pages = len(crawled.Pages)
	}

	if rec.Website == "" {
		return "No website could be located for this company; no pages were crawled."
	}
	if !rec.HasContacts() {
		if pages == 0 {
			return "Website located but could not be crawled. The suggested pages may be worth checking manually."
		}
		return fmt.Sprintf("Website located but no contact details were found on %d crawled page(s). The suggested pages may be worth checking manually.", pages)
	}

	var parts []string
	if crawled != nil {
		if n := len(crawled.Signals.Emails); n > 0 {
			parts = append(parts, countNoun(n, "email address", "email addresses"))
		}
		if n := len(crawled.Signals.Phones); n > 0 {
			parts = append(parts, countNoun(n, "phone number", "phone numbers"))
		}
		if n := len(crawled.Signals.Addresses); n > 0 {
			parts = append(parts, countNoun(n, "address", "addresses"))
		}
	}
	if n := len(rec.DecisionMakers); n > 0 {
		parts = append(parts, countNoun(n, "named contact", "named contacts"))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Crawled %d page(s).", pages)
	}
	return fmt.Sprintf("Found %s across %d crawled page(s).", joinList(parts), pages)
}

func countNoun(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
