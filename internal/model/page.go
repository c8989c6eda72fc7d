package model

import "time"

// PageType classifies a crawled page by its role on the site.
type PageType string

const (
	PageTypeHome    PageType = "home"
	PageTypeContact PageType = "contact"
	PageTypeAbout   PageType = "about"
	PageTypeTeam    PageType = "team"
	PageTypeUnknown PageType = "unknown"
)

// AllPageTypes returns all defined page types.
func AllPageTypes() []PageType {
	return []PageType{
		PageTypeHome,
		PageTypeContact,
		PageTypeAbout,
		PageTypeTeam,
		PageTypeUnknown,
	}
}

// Link is an anchor found on a page: its resolved absolute target and the
// anchor text it was labelled with.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// CrawledPage is a fetched page plus its extracted plumbing. Transient,
// discarded after extraction.
type CrawledPage struct {
	URL        string   `json:"url"`
	FinalURL   string   `json:"final_url,omitempty"` // after redirects
	Type       PageType `json:"type"`
	Title      string   `json:"title,omitempty"`
	Text       string   `json:"text,omitempty"`
	HTML       string   `json:"html,omitempty"`
	Links      []Link   `json:"links,omitempty"`
	StatusCode int      `json:"status_code"`
}

// CrawlResult bundles the pages fetched for one site with the signals
// extracted per page.
type CrawlResult struct {
	Website   string            `json:"website"`
	Pages     []CrawledPage     `json:"pages"`
	Signals   ExtractedSignals  `json:"signals"`
	PerPage   map[string]string `json:"per_page,omitempty"` // url -> page type, for provenance
	CrawledAt time.Time         `json:"crawled_at"`
}

// CrawlCache is a cached crawl stored with a short TTL.
type CrawlCache struct {
	ID        string        `json:"id"`
	Website   string        `json:"website"`
	Pages     []CrawledPage `json:"pages"`
	CrawledAt time.Time     `json:"crawled_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}
