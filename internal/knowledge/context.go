package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bluenorth/prospect-cli/internal/model"
)

const (
	contextPostingLimit = 20
	topSkillLimit       = 10
	locationListLimit   = 5
)

// Role buckets for the excerpt. A title lands in the first bucket it
// matches; short keywords match as whole tokens so "bi" stays out of
// "mobile".
var (
	dataTitleWords = []string{"data", "analytics", "analist", "analyst", "business intelligence", "bi"}
	techTitleWords = []string{"engineer", "developer", "ontwikkelaar", "architect", "devops", "cloud"}
	mgmtTitleWords = []string{"manager", "director", "directeur", "lead", "head", "chief", "vp"}
)

// Bucket listing caps mirror what a reader can skim.
const (
	dataRoleCap = 5
	techRoleCap = 5
	mgmtRoleCap = 3
)

// PostingSource reads stored postings for context building.
type PostingSource interface {
	// RecentPostingsByCompany returns up to limit postings for the company,
	// newest first. Company matching is case-insensitive.
	RecentPostingsByCompany(ctx context.Context, company string, limit int) ([]model.JobPosting, error)

	// CountPostingsByCompany returns the total stored posting count.
	CountPostingsByCompany(ctx context.Context, company string) (int, error)
}

// Provider derives per-company knowledge context from stored postings.
type Provider struct {
	src PostingSource
}

// NewProvider creates a Provider reading from src.
func NewProvider(src PostingSource) *Provider {
	return &Provider{src: src}
}

// Context builds the knowledge context for a company: an excerpt grouping
// recent roles into data, engineering and management buckets, the most
// requested skills, and the most common posting country as a location hint.
// Returns (nil, nil) when the store holds nothing for the company.
func (p *Provider) Context(ctx context.Context, companyName string) (*model.KnowledgeContext, error) {
	postings, err := p.src.RecentPostingsByCompany(ctx, companyName, contextPostingLimit)
	if err != nil {
		return nil, eris.Wrapf(err, "knowledge: load postings for %s", companyName)
	}
	if len(postings) == 0 {
		return nil, nil
	}

	total, err := p.src.CountPostingsByCompany(ctx, companyName)
	if err != nil {
		return nil, eris.Wrapf(err, "knowledge: count postings for %s", companyName)
	}

	skills := topSkills(postings)

	return &model.KnowledgeContext{
		Excerpt:         buildExcerpt(companyName, total, postings, skills),
		SourceCount:     total,
		LocationHint:    mostCommonCountry(postings),
		TopSkills:       skills,
		LatestPostingAt: latestPostingTime(postings),
	}, nil
}

// latestPostingTime returns the newest posting date, preferring the posting
// date over the import date. Postings arrive newest first but a posting with
// only a first-seen date can precede one with a real posted date.
func latestPostingTime(postings []model.JobPosting) time.Time {
	var latest time.Time
	for _, p := range postings {
		ts := p.PostedAt
		if ts.IsZero() {
			ts = p.FirstSeenAt
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

// JobCount returns the total stored posting count for a company.
func (p *Provider) JobCount(ctx context.Context, companyName string) (int, error) {
	n, err := p.src.CountPostingsByCompany(ctx, companyName)
	if err != nil {
		return 0, eris.Wrapf(err, "knowledge: count postings for %s", companyName)
	}
	return n, nil
}

func buildExcerpt(companyName string, total int, postings []model.JobPosting, skills []string) string {
	var dataRoles, techRoles, mgmtRoles []string
	for _, p := range postings {
		switch {
		case matchesRole(p.Title, dataTitleWords):
			dataRoles = append(dataRoles, p.Title)
		case matchesRole(p.Title, techTitleWords):
			techRoles = append(techRoles, p.Title)
		case matchesRole(p.Title, mgmtTitleWords):
			mgmtRoles = append(mgmtRoles, p.Title)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d job postings on record.\n", companyName, total)

	writeRoleLine(&b, "Data & analytics roles", dataRoles, dataRoleCap)
	writeRoleLine(&b, "Engineering roles", techRoles, techRoleCap)
	writeRoleLine(&b, "Management roles", mgmtRoles, mgmtRoleCap)

	if len(skills) > 0 {
		fmt.Fprintf(&b, "Frequently requested skills: %s.\n", strings.Join(skills, ", "))
	}
	if locations := postingLocations(postings); len(locations) > 0 {
		fmt.Fprintf(&b, "Posting locations: %s.\n", strings.Join(locations, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeRoleLine(b *strings.Builder, label string, titles []string, limit int) {
	if len(titles) == 0 {
		return
	}
	shown := titles
	if len(shown) > limit {
		shown = shown[:limit]
	}
	fmt.Fprintf(b, "%s (%d): %s\n", label, len(titles), strings.Join(shown, "; "))
}

func matchesRole(title string, words []string) bool {
	lower := strings.ToLower(title)
	for _, w := range words {
		if len(w) <= 3 {
			for _, tok := range strings.Fields(lower) {
				if strings.Trim(tok, ".,;:()&/") == w {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// topSkills counts skills case-insensitively and returns the most frequent
// first. Ties keep first-seen order so output is stable.
func topSkills(postings []model.JobPosting) []string {
	counts := make(map[string]int)
	var order []string
	for _, p := range postings {
		for _, s := range p.Skills {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" {
				continue
			}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	// Stable sort keeps equal-count skills in first-seen order.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topSkillLimit {
		order = order[:topSkillLimit]
	}
	return order
}

func mostCommonCountry(postings []model.JobPosting) string {
	counts := make(map[string]int)
	var order []string
	for _, p := range postings {
		key := strings.TrimSpace(p.Country)
		if key == "" {
			continue
		}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	if len(order) == 0 {
		return ""
	}

	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func postingLocations(postings []model.JobPosting) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range postings {
		loc := strings.TrimSpace(p.Location)
		if loc == "" || seen[strings.ToLower(loc)] {
			continue
		}
		seen[strings.ToLower(loc)] = true
		out = append(out, loc)
		if len(out) == locationListLimit {
			break
		}
	}
	return out
}
