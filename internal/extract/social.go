package extract

import (
	"regexp"
	"strings"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// socialHosts identify company profile links worth carrying on the record.
// Personal LinkedIn profiles are handled by the people strategies instead.
var socialHosts = []string{
	"linkedin.com/company",
	"facebook.com/",
	"instagram.com/",
	"twitter.com/",
	"x.com/",
	"youtube.com/",
	"github.com/",
}

// shareFragments mark share and intent widgets rather than profiles.
var shareFragments = []string{"/share", "intent/", "sharer", "/plugins/"}

// SocialLinks collects company social profile URLs from page links.
func SocialLinks(links []model.Link) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range links {
		lower := strings.ToLower(l.URL)
		if !strings.HasPrefix(lower, "http") {
			continue
		}
		if !matchesSocialHost(lower) || matchesShareFragment(lower) {
			continue
		}
		clean := strings.TrimRight(l.URL, "/")
		key := strings.ToLower(clean)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, clean)
	}
	return out
}

func matchesSocialHost(lower string) bool {
	for _, h := range socialHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func matchesShareFragment(lower string) bool {
	for _, f := range shareFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

var metaDescRe = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)

const (
	minParagraphLen = 80
	maxDescription  = 500
)

// Description extracts a short company description, preferring the page's
// meta description over body text.
func Description(page model.CrawledPage) string {
	if d := metaDescription(page.HTML); d != "" {
		return clipDescription(d)
	}
	// Fall back to the first substantial paragraph of body text.
	for _, line := range strings.Split(page.Text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= minParagraphLen && !strings.ContainsRune(line, '@') {
			return clipDescription(line)
		}
	}
	return ""
}

// metaDescription finds the description or og:description meta tag without
// assuming attribute order.
func metaDescription(rawHTML string) string {
	for _, tag := range metaDescRe.FindAllString(rawHTML, -1) {
		lower := strings.ToLower(tag)
		if !strings.Contains(lower, `"description"`) && !strings.Contains(lower, `'description'`) &&
			!strings.Contains(lower, `"og:description"`) && !strings.Contains(lower, `'og:description'`) {
			continue
		}
		if c := metaContent(tag); c != "" {
			return c
		}
	}
	return ""
}

var contentAttrRe = regexp.MustCompile(`(?i)content\s*=\s*("([^"]*)"|'([^']*)')`)

func metaContent(tag string) string {
	m := contentAttrRe.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(m[3])
}

func clipDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxDescription {
		return s
	}
	return strings.TrimSpace(string(r[:maxDescription])) + "..."
}
