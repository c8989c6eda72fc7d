// Package domainmatch decides whether a candidate URL plausibly belongs to a
// named company. It is the acceptance gate for every website the resolver
// discovers and for every link the crawler follows: a domain that cannot be
// tied back to the company name is rejected, never trusted by default.
package domainmatch

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// blockedHosts are substrings of hostnames that can never be a company's own
// website: social networks, job boards, news and directory sites, map and
// search-engine hosts, coworking brands, blog and CMS platforms.
var blockedHosts = []string{
	"linkedin",
	"facebook",
	"twitter",
	"instagram",
	"youtube",
	"indeed",
	"glassdoor",
	"monsterboard",
	"monster.com",
	"ziprecruiter",
	"wikipedia",
	"crunchbase",
	"bloomberg",
	"reuters",
	"ycombinator",
	"reddit",
	"duckduckgo",
	"amazon",
	"bing.com",
	"baidu",
	"zhihu",
	"mapcarta",
	"maps.google",
	"openstreetmap",
	"archcompetition",
	"wework",
	"regus",
	"spacesworks",
	"hubspot",
	"salesforce",
	"wordpress",
	"medium.com",
	"blogger",
	"blogspot",
	"atsmodding",
	"modland",
	"allmods",
	"ets2world",
	"truckymods",
}

// suffixWords are legal-form and filler words stripped from company names
// before slugging. They also never count as significant words on their own.
var suffixWords = map[string]bool{
	"the":           true,
	"inc":           true,
	"llc":           true,
	"ltd":           true,
	"co":            true,
	"bv":            true,
	"nv":            true,
	"gmbh":          true,
	"company":       true,
	"group":         true,
	"holding":       true,
	"international": true,
	"corp":          true,
	"corporation":   true,
	"biotech":       true,
	"medtech":       true,
	"hightech":      true,
	"talents":       true,
}

// stopwords extend suffixWords with connectives that carry no identity.
var stopwords = map[string]bool{
	"and": true,
	"for": true,
	"van": true,
	"der": true,
	"den": true,
	"het": true,
	"een": true,
	"los": true,
	"las": true,
}

// countryTLDs maps location keywords to the ccTLD a local company would
// plausibly register under.
var countryTLDs = map[string]string{
	"netherlands": "nl",
	"holland":     "nl",
	"nederland":   "nl",
	"belgium":     "be",
	"belgie":      "be",
	"germany":     "de",
	"deutschland": "de",
	"france":      "fr",
	"kingdom":     "uk",
	"england":     "uk",
	"britain":     "uk",
	"scotland":    "uk",
	"ireland":     "ie",
	"spain":       "es",
	"espana":      "es",
	"italy":       "it",
	"italia":      "it",
	"portugal":    "pt",
	"australia":   "au",
	"canada":      "ca",
	"austria":     "at",
	"switzerland": "ch",
	"sweden":      "se",
	"norway":      "no",
	"denmark":     "dk",
	"finland":     "fi",
	"poland":      "pl",
}

// Matcher screens candidate domains for a company. The zero value is not
// usable; construct with New.
type Matcher struct {
	blocked []string
}

// New returns a Matcher using the built-in blocklist plus any extra host
// substrings to reject.
func New(extra ...string) *Matcher {
	blocked := make([]string, 0, len(blockedHosts)+len(extra))
	blocked = append(blocked, blockedHosts...)
	for _, e := range extra {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			blocked = append(blocked, e)
		}
	}
	return &Matcher{blocked: blocked}
}

// Acceptable reports whether rawURL plausibly belongs to the company.
//
// Blocklisted hosts are rejected outright. Otherwise the company name is
// reduced to a slug and compared against the registrable domain label: short
// slugs (4 characters or fewer) must be an exact prefix of the label, longer
// names match when any significant word or the first 8 slug characters appear
// inside it. A ccTLD agreeing with the company's location relaxes the short
// prefix rule to a substring check but is never required. With no match the
// answer is no.
func (m *Matcher) Acceptable(rawURL string, company model.CompanyIdentity) bool {
	if !company.Valid() {
		return false
	}
	host := Host(rawURL)
	if host == "" || m.Blocked(host) {
		return false
	}

	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Bare IPs, single labels, and other oddities are never accepted.
		return false
	}
	label := reg
	if i := strings.IndexByte(label, '.'); i > 0 {
		label = label[:i]
	}

	slug := Slug(company.Name)
	if slug == "" {
		return false
	}

	ccAgrees := false
	if cc := CountryTLD(company.Location); cc != "" && strings.HasSuffix(host, "."+cc) {
		ccAgrees = true
	}

	if len(slug) <= 4 {
		if strings.HasPrefix(label, slug) {
			return true
		}
		if ccAgrees && strings.Contains(label, slug) {
			return true
		}
		return false
	}

	folded := strings.ReplaceAll(label, "-", "")
	for _, w := range SignificantWords(company.Name) {
		if strings.Contains(label, w) || strings.Contains(folded, w) {
			return true
		}
	}

	head := slug
	if len(head) > 8 {
		head = head[:8]
	}
	return strings.Contains(folded, head)
}

// Blocked reports whether the host matches the blocklist.
func (m *Matcher) Blocked(host string) bool {
	host = strings.ToLower(host)
	for _, b := range m.blocked {
		if strings.Contains(host, b) {
			return true
		}
	}
	return false
}

// SameSite reports whether rawURL lives on the same registrable domain as
// siteHost and is not blocklisted. The crawler uses it to screen outbound
// links before following them.
func (m *Matcher) SameSite(rawURL, siteHost string) bool {
	host := Host(rawURL)
	if host == "" || m.Blocked(host) {
		return false
	}
	root := normalizeHost(siteHost)
	if root == "" {
		return false
	}
	a, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	b, err := publicsuffix.EffectiveTLDPlusOne(root)
	if err != nil {
		return false
	}
	return a == b
}

// Host extracts the normalized hostname from a URL or bare domain string,
// lowercased, with any leading "www." and port stripped. Returns "" when no
// hostname can be found.
func Host(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}

// Slug reduces a company name to its identity: lowercased, legal-form words
// removed, everything but letters and digits dropped. A name made up entirely
// of legal-form words keeps all of them so the slug is never empty for a
// non-empty name.
func Slug(name string) string {
	words := splitWords(name)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !suffixWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		kept = words
	}
	return strings.Join(kept, "")
}

// SignificantWords returns the identity-bearing words of a company name:
// longer than two characters and neither a legal-form word nor a stopword.
func SignificantWords(name string) []string {
	var out []string
	for _, w := range splitWords(name) {
		if len(w) <= 2 || suffixWords[w] || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// CountryTLD returns the ccTLD implied by a free-form location hint, or ""
// when none is recognized.
func CountryTLD(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return ""
	}
	if len(loc) == 2 {
		for _, cc := range countryTLDs {
			if cc == loc {
				return cc
			}
		}
	}
	for key, cc := range countryTLDs {
		if strings.Contains(loc, key) {
			return cc
		}
	}
	return ""
}

func splitWords(name string) []string {
	lower := strings.ToLower(name)
	// Dots and apostrophes join letters ("B.V." reads as "bv"); everything
	// else splits words.
	lower = strings.Map(func(r rune) rune {
		switch r {
		case '.', '\'', '’':
			return -1
		}
		return r
	}, lower)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}
