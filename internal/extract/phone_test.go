package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/model"
)

func TestPhonesSpacedInternationalForm(t *testing.T) {
	t.Parallel()

	// The labeled form and the bare international form both match; they
	// collapse to one candidate on the digit key.
	got := Phones("Tel. +31 30 2 123 123\nBereikbaar op werkdagen.", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "+31 30 2 123 123", got[0])
}

func TestPhonesLayeredForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "labeled local",
			text: "Telefoon: 030-123 4567",
			want: []string{"030-123 4567"},
		},
		{
			name: "parenthesized area code",
			text: "Call (020) 555 01 99 for sales.",
			want: []string{"(020) 555 01 99"},
		},
		{
			name: "us style",
			text: "Phone: +1 (555) 010-9000",
			want: []string{"+1 (555) 010-9000"},
		},
		{
			name: "too few digits",
			text: "Tel: 12 34",
			want: nil,
		},
		{
			name: "date is not a phone",
			text: "Published 12.03.2024 by the press office",
			want: nil,
		},
		{
			name: "iso date is not a phone",
			text: "Updated 2024-01-15 10:30",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Phones(tt.text, nil))
		})
	}
}

func TestPhonesFromTelLinks(t *testing.T) {
	t.Parallel()

	links := []model.Link{
		{URL: "tel:+31301234567", Text: "Bel ons"},
		{URL: "https://acme.nl/contact", Text: "Contact"},
	}
	got := Phones("Bel ons: +31 30 123 4567", links)
	require.Len(t, got, 1)
	assert.Equal(t, "+31301234567", got[0])
}

func TestPhonesSkipsBankAccounts(t *testing.T) {
	t.Parallel()

	got := Phones("IBAN NL91 ABNA 0417 1643 00\nTel: 030 123 45 67", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "030 123 45 67", got[0])
}

func TestPhonesNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	got := Phones("Tel:\t030   123\t45 67", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "030 123 45 67", got[0])
}
