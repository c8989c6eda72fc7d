package extract

import (
	"regexp"
	"strings"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// Phone patterns are layered from most to least specific. A candidate is kept
// only when its digit-only form has 7 to 15 digits, and candidates are
// deduplicated on that digit form so the same number printed in several
// styles appears once.
var (
	// Text is whitespace-collapsed before matching, so a single space is the
	// only in-number separator besides dots and dashes. Keeping newlines out
	// of the classes stops a match from spanning lines.
	labeledPhoneRe = regexp.MustCompile(`(?i)(?:tel|t[eé]l[eé]phone|telefoon|phone|call us|bel ons)[:. ]+((?:\+|\()?\d[\d ().\-]{5,})`)

	phonePatterns = []*regexp.Regexp{
		// International with country code: +31 30 2 123 123, +1 (555) 010-9000.
		regexp.MustCompile(`\+\d{1,3}[ .\-]?\(?\d{1,4}\)?(?:[ .\-]?\d{1,4}){1,6}`),
		// Parenthesized area code: (030) 123 45 67.
		regexp.MustCompile(`\(\d{2,4}\)[ .\-]?\d{2,4}(?:[ .\-]?\d{2,4}){1,4}`),
		// Delimited local runs: 030-123 4567, 06 12 34 56 78.
		regexp.MustCompile(`\b\d{2,4}(?:[ .\-]\d{2,4}){2,5}\b`),
	}

	// A 1-2 digit group between dots, dashes, or slashes reads as a date
	// (12.03.2024, 2024-01-15). Labeled candidates are exempt since a tel
	// prefix outweighs the shape.
	dateShapeRe = regexp.MustCompile(`\d{1,4}[.\-/]\d{1,2}[.\-/]\d{1,4}`)

	ibanPrefixRe = regexp.MustCompile(`[A-Z]{2}\d{2}\s?[A-Z]{4}\s?$`)
)

// Phones extracts phone numbers from page text and tel: link targets.
// Candidates are gathered most-specific first so that when matches overlap,
// the fullest form of a number is the one kept.
func Phones(text string, links []model.Link) []string {
	normalized := collapseRuns(text)

	type candidate struct {
		raw     string
		start   int
		labeled bool
	}
	var cands []candidate

	for _, l := range links {
		if strings.HasPrefix(strings.ToLower(l.URL), "tel:") {
			cands = append(cands, candidate{raw: l.URL[len("tel:"):], start: -1, labeled: true})
		}
	}
	for _, m := range labeledPhoneRe.FindAllStringSubmatchIndex(normalized, -1) {
		cands = append(cands, candidate{raw: normalized[m[2]:m[3]], start: m[2], labeled: true})
	}
	for _, re := range phonePatterns {
		for _, m := range re.FindAllStringIndex(normalized, -1) {
			cands = append(cands, candidate{raw: normalized[m[0]:m[1]], start: m[0]})
		}
	}

	var out []string
	var kept []string
	for _, c := range cands {
		raw := strings.Trim(strings.TrimSpace(c.raw), ".,;")
		digits := digitsOf(raw)
		if len(digits) < 7 || len(digits) > 15 {
			continue
		}
		if !c.labeled && dateShapeRe.MatchString(raw) {
			continue
		}
		if c.start >= 0 && bankingContext(normalized, c.start) {
			continue
		}
		// A digit form contained in an earlier candidate is the same number
		// matched partially.
		contained := false
		for _, k := range kept {
			if strings.Contains(k, digits) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		kept = append(kept, digits)
		out = append(out, raw)
	}
	return out
}

// bankingContext reports whether the characters just before a match look like
// an IBAN or account label, so spaced account numbers are not read as phones.
func bankingContext(text string, start int) bool {
	from := start - 16
	if from < 0 {
		from = 0
	}
	before := strings.ToLower(text[from:start])
	if strings.Contains(before, "iban") || strings.Contains(before, "rekening") || strings.Contains(before, "account") {
		return true
	}
	// Country prefix and bank code, as in NL91 ABNA 0417 1643 00.
	return ibanPrefixRe.MatchString(text[from:start])
}

// collapseRuns normalizes horizontal whitespace per line so the patterns see
// single spaces between digit groups.
func collapseRuns(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}
