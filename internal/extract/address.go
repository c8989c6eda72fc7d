package extract

import (
	"regexp"
	"strings"
)

// addressLabels anchor the label strategy. The label line itself may carry
// the first part of the address after a colon.
var addressLabels = []string{
	"bezoekadres",
	"postadres",
	"visiting address",
	"postal address",
	"address",
	"adres",
	"headquarters",
	"hoofdkantoor",
	"head office",
	"our office",
	"visit us",
	"find us",
}

// addressStops terminate line collection: the block after them is contact
// detail of another kind, not part of the street address.
var addressStops = []string{
	"tel", "phone", "telefoon", "fax", "email", "e-mail", "mail",
	"kvk", "btw", "vat", "iban", "opening", "openingstijden", "hours",
	"route", "directions",
}

var (
	// Number-last (Hoofdstraat 12a) or number-first (221B Baker Street).
	streetLineRe = regexp.MustCompile(`^[\p{L}][\p{L} .'\-]{2,40}\s\d{1,4}[a-zA-Z]?\.?$|^\d{1,4}[a-zA-Z]?\s[\p{L}][\p{L} .'\-]{2,40}$`)
	// 3511 AB Utrecht, 62704 Springfield.
	postalCityRe = regexp.MustCompile(`^\d{4,5}\s?[A-Z]{0,2}[\s,]+[\p{L}][\p{L} .'\-]{1,40}$`)
	// Single-line form: Hoofdstraat 12, 3511 AB Utrecht. Street is capped at
	// four words and city at two so surrounding prose stays out.
	inlineAddressRe = regexp.MustCompile(`[\p{L}][\p{L}.'\-]*(?: [\p{L}][\p{L}.'\-]*){0,3} \d{1,4}[a-zA-Z]?, ?\d{4,5} ?[A-Z]{0,2} [\p{L}][\p{L}.'\-]{1,24}(?: [\p{L}][\p{L}.'\-]{1,24})?`)
)

const (
	minAddressLen   = 10
	maxAddressLen   = 120
	maxAddressLines = 4
)

// Addresses extracts postal addresses from line-structured page text using
// two anchors: address-indicating labels and street or postal-code shapes.
func Addresses(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}

	var found []string
	found = append(found, labelAnchored(lines)...)
	found = append(found, patternAnchored(lines)...)
	found = append(found, inlineAddressRe.FindAllString(collapseRuns(text), -1)...)

	var out []string
	seen := make(map[string]bool, len(found))
	for _, a := range found {
		a = strings.Trim(a, " .,;")
		key := strings.ToLower(a)
		if seen[key] || !plausibleAddress(a) {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// labelAnchored collects the lines following an address label until a stop
// keyword, a blank gap, or the line cap.
func labelAnchored(lines []string) []string {
	var found []string
	for i, line := range lines {
		label, rest := matchLabel(line)
		if !label {
			continue
		}
		var parts []string
		if rest != "" {
			parts = append(parts, rest)
		}
		for j := i + 1; j < len(lines) && len(parts) < maxAddressLines; j++ {
			l := lines[j]
			if l == "" {
				if len(parts) > 0 {
					break
				}
				continue
			}
			if stopsAddress(l) {
				break
			}
			parts = append(parts, l)
		}
		if len(parts) > 0 {
			found = append(found, strings.Join(parts, ", "))
		}
	}
	return found
}

// matchLabel reports whether a line is an address label, returning whatever
// trails the label on the same line.
func matchLabel(line string) (bool, string) {
	if len(line) == 0 || len(line) > 60 {
		return false, ""
	}
	lower := strings.ToLower(line)
	for _, label := range addressLabels {
		idx := strings.Index(lower, label)
		if idx != 0 {
			continue
		}
		rest := strings.TrimLeft(line[len(label):], " \t:.-")
		// A label line holds at most a short remainder, not prose.
		if len(rest) > 80 {
			return false, ""
		}
		return true, rest
	}
	return false, ""
}

func stopsAddress(line string) bool {
	if strings.ContainsRune(line, '@') {
		return true
	}
	lower := strings.ToLower(line)
	first := strings.TrimRight(strings.SplitN(lower, " ", 2)[0], ":.")
	for _, stop := range addressStops {
		if first == stop || strings.HasPrefix(lower, stop+":") {
			return true
		}
	}
	return false
}

// patternAnchored pairs a street-and-number line with a following
// postal-code-and-city line.
func patternAnchored(lines []string) []string {
	var found []string
	for i := 0; i+1 < len(lines); i++ {
		if lines[i] == "" || lines[i+1] == "" {
			continue
		}
		if streetLineRe.MatchString(lines[i]) && postalCityRe.MatchString(lines[i+1]) {
			found = append(found, lines[i]+", "+lines[i+1])
		}
	}
	return found
}

func plausibleAddress(a string) bool {
	if len(a) < minAddressLen || len(a) > maxAddressLen {
		return false
	}
	return strings.ContainsFunc(a, func(r rune) bool { return r >= '0' && r <= '9' })
}
