package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRubricIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Validate(DefaultRubric()))
}

func TestValidateAccumulatesErrors(t *testing.T) {
	t.Parallel()

	r := Rubric{
		TechPerMatch:  -1,
		TypePoints:    map[string]int{"megacorp": 500},
		SizePoints:    map[string]int{"tiny": -5},
		HotThreshold:  10,
		WarmThreshold: 20,
		ColdThreshold: 30,
	}

	err := Validate(r)
	require.Error(t, err)
	for _, want := range []string{
		"tech_per_match",
		"type_points[megacorp]",
		"size_points[tiny]",
		"warm_threshold",
		"hot_threshold",
	} {
		assert.Contains(t, err.Error(), want)
	}
	assert.Contains(t, err.Error(), "; ")
}

func TestValidatePerMatchAboveCap(t *testing.T) {
	t.Parallel()

	r := DefaultRubric()
	r.TechPerMatch = 40
	err := Validate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tech_per_match must not exceed tech_cap")
}

func TestLoadRubricOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rubric.yaml")
	override := "tech_per_match: 3\nhot_threshold: 80\navoid_industries: [gambling]\n"
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	r, err := LoadRubric(path)
	require.NoError(t, err)

	assert.Equal(t, 3, r.TechPerMatch)
	assert.Equal(t, 80, r.HotThreshold)
	assert.Equal(t, []string{"gambling"}, r.AvoidIndustries)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, 30, r.TechCap)
	assert.Equal(t, 20, r.TypePoints["retail"])
	assert.Equal(t, 50, r.WarmThreshold)
}

func TestLoadRubricRejectsInvalidOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rubric.yaml")
	override := "warm_threshold: 10\ncold_threshold: 40\n"
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	_, err := LoadRubric(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm_threshold")
}

func TestLoadRubricMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadRubric(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rubric")
}

func TestLoadRubricBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rubric.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{unclosed"), 0o644))

	_, err := LoadRubric(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse rubric")
}

func TestRubricHash(t *testing.T) {
	t.Parallel()

	base := DefaultRubric()
	assert.Equal(t, RubricHash(base), RubricHash(DefaultRubric()))
	assert.Len(t, RubricHash(base), 32)

	tweaked := DefaultRubric()
	tweaked.HotThreshold = 75
	assert.NotEqual(t, RubricHash(base), RubricHash(tweaked))
}
