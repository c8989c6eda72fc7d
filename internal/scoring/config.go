// Package scoring implements the prospect scoring rubric: additive point
// tables over company attributes and hiring activity, clamped to 0-100 and
// bucketed into outreach categories. Scoring is pure and deterministic;
// the clock is injected so recency points are testable.
package scoring

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rubric holds the tunable parts of the scoring tables. The activity and
// recency brackets are fixed; everything else can be overridden from a YAML
// file for experiments.
type Rubric struct {
	TechPerMatch   int      `yaml:"tech_per_match"`
	TechCap        int      `yaml:"tech_cap"`
	TechVocabulary []string `yaml:"tech_vocabulary"`

	TypePoints  map[string]int `yaml:"type_points"`
	TypeUnknown int            `yaml:"type_unknown"`

	HighValueIndustries []string `yaml:"high_value_industries"`
	AvoidIndustries     []string `yaml:"avoid_industries"`
	IndustryHighValue   int      `yaml:"industry_high_value"`
	IndustryOther       int      `yaml:"industry_other"`
	IndustryUnknown     int      `yaml:"industry_unknown"`

	SizePoints  map[string]int `yaml:"size_points"`
	SizeOther   int            `yaml:"size_other"`
	SizeUnknown int            `yaml:"size_unknown"`

	HotThreshold  int `yaml:"hot_threshold"`
	WarmThreshold int `yaml:"warm_threshold"`
	ColdThreshold int `yaml:"cold_threshold"`
}

// DefaultRubric returns the authoritative rubric.
func DefaultRubric() Rubric {
	return Rubric{
		TechPerMatch: 6,
		TechCap:      30,
		TechVocabulary: []string{
			// Core platform vocabulary.
			"bigquery", "looker", "gcp", "google cloud platform",
			"microstrategy", "vertex ai", "looker studio", "lookml",
			// Secondary ecosystem services.
			"dataflow", "dataproc", "cloud storage", "pubsub",
			"cloud composer", "cloud functions", "cloud run",
		},

		TypePoints: map[string]int{
			"retail":        20,
			"manufacturing": 20,
			"healthcare":    20,
			"finance":       20,
			"logistics":     15,
			"energy":        15,
			"government":    12,
			"education":     10,
			"agriculture":   10,
			"hospitality":   8,
			// Competitors sell to the same buyers.
			"technology": -15,
			"consulting": -15,
		},
		TypeUnknown: 5,

		HighValueIndustries: []string{
			"retail", "e-commerce", "ecommerce", "manufacturing",
			"logistics", "healthcare", "finance", "insurance",
			"energy", "utilities",
		},
		AvoidIndustries: []string{
			"staffing", "recruitment", "marketing agency",
			"advertising", "gambling", "crypto",
		},
		IndustryHighValue: 15,
		IndustryOther:     8,
		IndustryUnknown:   5,

		SizePoints: map[string]int{
			"1000+":    15,
			"500-1000": 15,
			"100-500":  12,
			"200-500":  12,
			"50-100":   8,
			"50-200":   8,
			"10-50":    5,
		},
		SizeOther:   3,
		SizeUnknown: 5,

		HotThreshold:  70,
		WarmThreshold: 50,
		ColdThreshold: 30,
	}
}

// Validate checks that a rubric is internally consistent.
func Validate(r Rubric) error {
	var errs []string

	if r.TechPerMatch < 0 {
		errs = append(errs, "tech_per_match must be >= 0")
	}
	if r.TechCap < 0 {
		errs = append(errs, "tech_cap must be >= 0")
	}
	if r.TechCap > 0 && r.TechPerMatch > r.TechCap {
		errs = append(errs, "tech_per_match must not exceed tech_cap")
	}

	for name, pts := range r.TypePoints {
		if pts < -100 || pts > 100 {
			errs = append(errs, fmt.Sprintf("type_points[%s] out of range [-100,100]", name))
		}
	}
	for band, pts := range r.SizePoints {
		if pts < 0 || pts > 100 {
			errs = append(errs, fmt.Sprintf("size_points[%s] out of range [0,100]", band))
		}
	}

	if r.ColdThreshold < 0 {
		errs = append(errs, "cold_threshold must be >= 0")
	}
	if r.WarmThreshold < r.ColdThreshold {
		errs = append(errs, "warm_threshold must be >= cold_threshold")
	}
	if r.HotThreshold < r.WarmThreshold {
		errs = append(errs, "hot_threshold must be >= warm_threshold")
	}
	if r.HotThreshold > 100 {
		errs = append(errs, "hot_threshold must be <= 100")
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: rubric validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadRubric reads a YAML override file on top of the defaults and validates
// the result.
func LoadRubric(path string) (Rubric, error) {
	r := DefaultRubric()
	data, err := os.ReadFile(path)
	if err != nil {
		return r, eris.Wrapf(err, "scoring: read rubric %s", path)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, eris.Wrapf(err, "scoring: parse rubric %s", path)
	}
	if err := Validate(r); err != nil {
		return r, err
	}
	return r, nil
}

// RubricHash returns a short SHA-256 of the rubric so persisted scores can be
// tied to the exact tables that produced them.
func RubricHash(r Rubric) string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
