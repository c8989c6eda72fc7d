package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluenorth/prospect-cli/internal/model"
)

func TestEmails(t *testing.T) {
	t.Parallel()

	text := "Contact us at info@acme.nl or sales@acme.nl.\n" +
		"Support: support@acme.nl\n" +
		"Template: you@example.com and test@acme.nl\n" +
		"Logo: logo@2x.png"

	links := []model.Link{
		{URL: "mailto:jobs@acme.nl?subject=Application", Text: "Apply"},
		{URL: "mailto:info@acme.nl", Text: "Mail"},
		{URL: "https://acme.nl/contact", Text: "Contact"},
	}

	got := Emails(text, links)
	assert.Equal(t, []string{"info@acme.nl", "sales@acme.nl", "support@acme.nl", "jobs@acme.nl"}, got)
}

func TestEmailsDedupesCaseInsensitively(t *testing.T) {
	t.Parallel()

	got := Emails("Info@Acme.nl or info@acme.nl", nil)
	assert.Equal(t, []string{"Info@Acme.nl"}, got)
}

func TestEmailsEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Emails("", nil))
	assert.Empty(t, Emails("no addresses here", nil))
}

func TestUsableEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"info@acme.nl", true},
		{"jan.de.vries@acme-global.com", true},
		{"someone@example.com", false},
		{"hello@sub.example.org", false},
		{"user@domain.com", false},
		{"me@email.com", false},
		{"test@acme.nl", false},
		{"sprite@2x.png", false},
		{"main@bundle.min.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usableEmail(tt.addr))
		})
	}
}
