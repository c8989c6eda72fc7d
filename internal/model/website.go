package model

// DiscoveryMethod records which resolver tier produced a website.
type DiscoveryMethod string

const (
	DiscoveryPrimarySearch  DiscoveryMethod = "primary-search"
	DiscoveryFallbackSearch DiscoveryMethod = "fallback-search"
	DiscoveryDomainGuess    DiscoveryMethod = "domain-guess"
	DiscoveryKnownWebsite   DiscoveryMethod = "known-website"
)

// MatchConfidence grades how strongly a discovered website matched the
// company identity.
type MatchConfidence string

const (
	MatchHigh MatchConfidence = "high"
	MatchLow  MatchConfidence = "low"
)

// DiscoveredWebsite is the outcome of one website resolution attempt. It is
// created once per resolution and not persisted beyond the request.
type DiscoveredWebsite struct {
	URL             string          `json:"url"`
	DiscoveryMethod DiscoveryMethod `json:"discovery_method"`
	MatchConfidence MatchConfidence `json:"match_confidence"`
}
