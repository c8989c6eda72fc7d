package extract

import (
	"regexp"
	"strings"

	"github.com/bluenorth/prospect-cli/internal/model"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// placeholderDomains appear in templates and code samples, never as a real
// company mailbox.
var placeholderDomains = []string{
	"example.com",
	"example.org",
	"example.net",
	"domain.com",
	"email.com",
	"yourcompany.com",
	"yourdomain.com",
	"sentry.io",
	"wixpress.com",
}

// assetSuffixes catch image filenames like logo@2x.png that the address
// pattern also matches.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js", ".woff", ".woff2"}

// Emails extracts addresses from page text and mailto link targets,
// filtering placeholder domains.
func Emails(text string, links []model.Link) []string {
	var found []string
	found = append(found, emailRe.FindAllString(text, -1)...)

	for _, l := range links {
		if !strings.HasPrefix(strings.ToLower(l.URL), "mailto:") {
			continue
		}
		addr := strings.TrimPrefix(l.URL[len("mailto:"):], " ")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if m := emailRe.FindString(addr); m != "" {
			found = append(found, m)
		}
	}

	var out []string
	seen := make(map[string]bool, len(found))
	for _, addr := range found {
		addr = strings.Trim(addr, ".")
		key := strings.ToLower(addr)
		if seen[key] || !usableEmail(key) {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

func usableEmail(lower string) bool {
	at := strings.LastIndexByte(lower, '@')
	if at <= 0 || at == len(lower)-1 {
		return false
	}
	if strings.HasPrefix(lower, "test@") {
		return false
	}
	domain := lower[at+1:]
	for _, p := range placeholderDomains {
		if domain == p || strings.HasSuffix(domain, "."+p) {
			return false
		}
	}
	for _, s := range assetSuffixes {
		if strings.HasSuffix(lower, s) {
			return false
		}
	}
	return true
}
