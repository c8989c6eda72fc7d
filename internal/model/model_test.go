package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyIdentityValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   CompanyIdentity
		want bool
	}{
		{"plain name", CompanyIdentity{Name: "Acme Corp"}, true},
		{"empty", CompanyIdentity{}, false},
		{"whitespace only", CompanyIdentity{Name: "   "}, false},
		{"name with hints", CompanyIdentity{Name: "Acme", Location: "be"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.id.Valid())
		})
	}
}

func TestAllPageTypes(t *testing.T) {
	t.Parallel()

	types := AllPageTypes()
	assert.Len(t, types, 5)

	seen := make(map[PageType]bool)
	for _, pt := range types {
		assert.False(t, seen[pt], "duplicate page type: %s", pt)
		seen[pt] = true
	}
	assert.True(t, seen[PageTypeHome])
	assert.True(t, seen[PageTypeUnknown])
}

func TestExtractedSignalsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		signals ExtractedSignals
		empty   bool
		direct  bool
	}{
		{"nothing", ExtractedSignals{}, true, false},
		{"email only", ExtractedSignals{Emails: []string{"info@acme.be"}}, false, true},
		{"person only", ExtractedSignals{People: []Person{{Name: "Jan Peeters"}}}, false, false},
		{
			"description does not count",
			ExtractedSignals{Description: "Acme makes widgets."},
			true, false,
		},
		{
			"social links do not count",
			ExtractedSignals{SocialLinks: []string{"https://linkedin.com/company/acme"}},
			true, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.empty, tt.signals.Empty())
			assert.Equal(t, tt.direct, tt.signals.HasDirectContact())
		})
	}
}

func TestContactRecordHasContacts(t *testing.T) {
	t.Parallel()

	empty := &ContactRecord{Company: "Acme"}
	assert.False(t, empty.HasContacts())

	withPhone := &ContactRecord{GeneralContact: GeneralContact{Phone: "+32 2 123 45 67"}}
	assert.True(t, withPhone.HasContacts())

	withPerson := &ContactRecord{DecisionMakers: []Person{{Name: "An Jacobs", Title: "CTO"}}}
	assert.True(t, withPerson.HasContacts())
}

func TestCategoryStringValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Hot Prospect", string(CategoryHotProspect))
	assert.Equal(t, "Warm Lead", string(CategoryWarmLead))
	assert.Equal(t, "Cold Lead", string(CategoryColdLead))
	assert.Equal(t, "Avoid", string(CategoryAvoid))
}
