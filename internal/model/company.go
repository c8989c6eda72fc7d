// Package model defines the shared types passed between pipeline components.
package model

import (
	"strings"
	"time"
)

// CompanyIdentity is the immutable input identifying a company to discover.
type CompanyIdentity struct {
	Name         string `json:"name"`
	KnownWebsite string `json:"known_website,omitempty"`
	Location     string `json:"location,omitempty"` // country hint, e.g. "be", "nl"
}

// Valid reports whether the identity can enter the pipeline. An empty name is
// the only input the pipeline rejects outright.
func (c CompanyIdentity) Valid() bool {
	return strings.TrimSpace(c.Name) != ""
}

// CompanyRecord is the attribute snapshot consumed by the scoring engine.
type CompanyRecord struct {
	Name            string    `json:"name"`
	CompanyType     string    `json:"company_type,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	SizeBand        string    `json:"size_band,omitempty"`
	TechStack       []string  `json:"tech_stack,omitempty"`
	JobCount        int       `json:"job_count"`
	FirstObservedAt time.Time `json:"first_observed_at,omitempty"`
}

// RunStatus represents the current state of a discovery run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusResolving   RunStatus = "resolving"
	RunStatusCrawling    RunStatus = "crawling"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusScoring     RunStatus = "scoring"
	RunStatusExporting   RunStatus = "exporting"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single discovery run for a company.
type Run struct {
	ID        string          `json:"id"`
	Company   CompanyIdentity `json:"company"`
	Status    RunStatus       `json:"status"`
	Result    *RunResult      `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RunResult holds the final outcome of a run. A run that found nothing is
// still complete; Website and Contact are simply empty.
type RunResult struct {
	Website         string          `json:"website,omitempty"`
	DiscoveryMethod DiscoveryMethod `json:"discovery_method,omitempty"`
	Contact         *ContactRecord  `json:"contact,omitempty"`
	Score           *ScoreBreakdown `json:"score,omitempty"`
	PagesCrawled    int             `json:"pages_crawled"`
	Phases          []PhaseResult   `json:"phases,omitempty"`
	CostUSD         float64         `json:"cost_usd,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// PhaseStatus represents the state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
