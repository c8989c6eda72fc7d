package model

import "time"

// JobPosting is one vacancy observed for a company, imported into the
// knowledge store from an external dataset.
type JobPosting struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	Country     string    `json:"country,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	FirstSeenAt time.Time `json:"first_seen_at,omitempty"`
}

// KnowledgeContext summarizes what the knowledge store already knows about a
// company before any live web access. Consumed read-only by the aggregator.
type KnowledgeContext struct {
	Excerpt         string    `json:"excerpt,omitempty"`
	SourceCount     int       `json:"source_count"`
	LocationHint    string    `json:"location_hint,omitempty"`
	TopSkills       []string  `json:"top_skills,omitempty"`
	LatestPostingAt time.Time `json:"latest_posting_at,omitempty"`
}
