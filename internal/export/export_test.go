package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/model"
)

func TestOfficeGeoJSON(t *testing.T) {
	assert.Empty(t, officeGeoJSON(nil))

	out := officeGeoJSON(&model.Coordinates{Lat: 50.8467, Lng: 4.3647})
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"type":"Point"`)
	// Lon/lat order: longitude first.
	assert.Contains(t, out, "4.3647")
	assert.Contains(t, out, "50.8467")
}

func TestFormatPeople(t *testing.T) {
	assert.Nil(t, formatPeople(nil))

	people := []model.Person{
		{Name: "Jan Peeters", Title: "CTO"},
		{Name: "An Claes"},
		{Name: "   "},
	}
	got := formatPeople(people)
	assert.Equal(t, []string{"Jan Peeters (CTO)", "An Claes"}, got)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"Jan Peeters", "Jan", "Peeters"},
		{"Anne Marie van den Berg", "Anne Marie van den", "Berg"},
		{"Cher", "", "Cher"},
		{"  ", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, "first of %q", tt.in)
		assert.Equal(t, tt.last, last, "last of %q", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	long := strings.Repeat("é", 20)
	assert.Len(t, []rune(truncate(long, 5)), 5)
}
