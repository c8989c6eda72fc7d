package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// Activity brackets are deliberately non-monotonic: a moderate posting level
// signals an active, reachable team, while mass hiring usually means a body
// shop or a company mid-reorganization.
const (
	activityMassHiring = 50
	activityHighBand   = 16
	activitySweetSpot  = 5
)

// Engine scores company records against a rubric.
type Engine struct {
	rubric Rubric

	// now is replaceable in tests so recency brackets are deterministic.
	now func() time.Time
}

// Option adjusts an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine. A zero rubric is replaced by the defaults.
func NewEngine(rubric Rubric, opts ...Option) *Engine {
	e := &Engine{rubric: rubric, now: time.Now}
	if e.rubric.TechPerMatch == 0 && e.rubric.TypePoints == nil {
		e.rubric = DefaultRubric()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the full breakdown for one company. jobCount is the live
// posting count from the knowledge store; rec.JobCount is ignored here so
// callers control which count applies.
func (e *Engine) Score(rec model.CompanyRecord, jobCount int) model.ScoreBreakdown {
	r := e.rubric

	tech, _ := scoreTech(rec.TechStack, r)
	typePts := scoreCompanyType(rec.CompanyType, r)

	b := model.ScoreBreakdown{
		Tech:        tech,
		CompanyType: typePts,
		Industry:    scoreIndustry(rec.Industry, r),
		Size:        scoreSize(rec.SizeBand, r),
		Activity:    scoreActivity(jobCount),
		Recency:     scoreRecency(rec.FirstObservedAt, e.now()),
	}

	total := b.Tech + b.CompanyType + b.Industry + b.Size + b.Activity + b.Recency
	b.Total = clamp(total, 0, 100)
	b.Category = e.categorize(b.Total, typePts)
	return b
}

// ScoreBatch scores every record and returns them ordered by total,
// descending. The sort is stable so equal totals keep input order.
func (e *Engine) ScoreBatch(recs []model.CompanyRecord) []model.ScoredCompany {
	out := make([]model.ScoredCompany, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.ScoredCompany{
			Company: rec,
			Score:   e.Score(rec, rec.JobCount),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Total > out[j].Score.Total
	})
	return out
}

// MatchedTech returns the vocabulary terms found in a tech stack, for
// explaining a score.
func (e *Engine) MatchedTech(stack []string) []string {
	_, matched := scoreTech(stack, e.rubric)
	return matched
}

// TechMentions scans free page text for rubric vocabulary. Used to enrich a
// company record with stack terms its website mentions.
func (e *Engine) TechMentions(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, term := range e.rubric.TechVocabulary {
		if strings.Contains(lower, term) {
			out = append(out, term)
		}
	}
	return out
}

// scoreTech awards points per distinct vocabulary term found in the stack,
// capped. A term matches when it is a substring of a stack item.
func scoreTech(stack []string, r Rubric) (int, []string) {
	if len(stack) == 0 {
		return 0, nil
	}
	lowered := make([]string, 0, len(stack))
	for _, item := range stack {
		lowered = append(lowered, strings.ToLower(item))
	}

	var matched []string
	for _, term := range r.TechVocabulary {
		for _, item := range lowered {
			if strings.Contains(item, term) {
				matched = append(matched, term)
				break
			}
		}
	}

	points := len(matched) * r.TechPerMatch
	if points > r.TechCap {
		points = r.TechCap
	}
	return points, matched
}

func scoreCompanyType(companyType string, r Rubric) int {
	key := strings.ToLower(strings.TrimSpace(companyType))
	if key == "" {
		return r.TypeUnknown
	}
	if pts, ok := r.TypePoints[key]; ok {
		return pts
	}
	// A multi-word type still matches when it contains a known key.
	for name, pts := range r.TypePoints {
		if strings.Contains(key, name) {
			return pts
		}
	}
	return r.TypeUnknown
}

func scoreIndustry(industry string, r Rubric) int {
	key := strings.ToLower(strings.TrimSpace(industry))
	if key == "" {
		return r.IndustryUnknown
	}
	for _, avoid := range r.AvoidIndustries {
		if strings.Contains(key, avoid) {
			return 0
		}
	}
	for _, hv := range r.HighValueIndustries {
		if strings.Contains(key, hv) {
			return r.IndustryHighValue
		}
	}
	return r.IndustryOther
}

func scoreSize(band string, r Rubric) int {
	key := normalizeBand(band)
	if key == "" {
		return r.SizeUnknown
	}
	if pts, ok := r.SizePoints[key]; ok {
		return pts
	}
	return r.SizeOther
}

func normalizeBand(band string) string {
	band = strings.ToLower(strings.TrimSpace(band))
	band = strings.ReplaceAll(band, " ", "")
	return strings.ReplaceAll(band, "–", "-")
}

func scoreActivity(jobCount int) int {
	switch {
	case jobCount >= activityMassHiring:
		return -10
	case jobCount >= activityHighBand:
		return 8
	case jobCount >= activitySweetSpot:
		return 15
	case jobCount >= 1:
		return 5
	default:
		return 0
	}
}

func scoreRecency(firstObserved time.Time, now time.Time) int {
	if firstObserved.IsZero() {
		return 0
	}
	age := now.Sub(firstObserved)
	switch {
	case age <= 7*24*time.Hour:
		return 5
	case age <= 30*24*time.Hour:
		return 3
	case age <= 90*24*time.Hour:
		return 1
	default:
		return 0
	}
}

// categorize buckets a total score. A negative company-type sub-score caps
// the category at Cold Lead no matter the total.
func (e *Engine) categorize(total, typePts int) model.Category {
	r := e.rubric
	var cat model.Category
	switch {
	case total >= r.HotThreshold:
		cat = model.CategoryHotProspect
	case total >= r.WarmThreshold:
		cat = model.CategoryWarmLead
	case total >= r.ColdThreshold:
		cat = model.CategoryColdLead
	default:
		cat = model.CategoryAvoid
	}
	if typePts < 0 && (cat == model.CategoryHotProspect || cat == model.CategoryWarmLead) {
		cat = model.CategoryColdLead
	}
	return cat
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
