package model

// Category buckets a prospect by total score.
type Category string

const (
	CategoryHotProspect Category = "Hot Prospect"
	CategoryWarmLead    Category = "Warm Lead"
	CategoryColdLead    Category = "Cold Lead"
	CategoryAvoid       Category = "Avoid"
)

// ScoreBreakdown is the output of one scoring call. Recomputed fresh on every
// call, never mutated in place.
type ScoreBreakdown struct {
	Tech        int      `json:"tech"`
	CompanyType int      `json:"company_type"`
	Industry    int      `json:"industry"`
	Size        int      `json:"size"`
	Activity    int      `json:"activity"`
	Recency     int      `json:"recency"`
	Total       int      `json:"total"`
	Category    Category `json:"category"`
}

// ScoredCompany pairs a company record with its breakdown for batch output.
type ScoredCompany struct {
	Company CompanyRecord  `json:"company"`
	Score   ScoreBreakdown `json:"score"`
}
