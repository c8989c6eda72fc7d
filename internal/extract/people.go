package extract

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// Source values recorded on extracted people, one per strategy.
const (
	sourceStructural = "page-structure"
	sourceTextual    = "page-text"
	sourceStructured = "structured-data"
)

// titleKeywords mark a line or node as a job title. Multi-word entries match
// as substrings, single words match whole tokens only, so "service" does not
// hit "vice".
var titleKeywords = []string{
	"ceo", "cto", "cfo", "coo", "cio", "cmo",
	"chief", "founder", "co-founder", "oprichter", "mede-oprichter",
	"director", "directeur", "managing", "manager",
	"head of", "hoofd", "lead", "president", "vice president", "vp",
	"partner", "owner", "eigenaar", "principal", "chairman", "voorzitter",
	"architect", "engineer", "consultant", "specialist", "officer",
	"advisor", "adviseur", "analyst", "developer", "recruiter",
}

// phraseBlocklist rejects navigation labels and calls to action that share
// the shape of a capitalized name.
var phraseBlocklist = []string{
	"meet the team", "our team", "ons team", "the team",
	"read more", "lees meer", "learn more", "more info", "meer informatie",
	"get in touch", "contact us", "about us", "over ons",
	"privacy policy", "cookie", "all rights reserved", "terms of",
	"algemene voorwaarden", "follow us", "join our", "join us",
	"vacatures", "open positions", "view profile", "send message",
}

// nameConnectives are lowercase particles allowed in the middle of a name.
var nameConnectives = map[string]bool{
	"van": true, "der": true, "de": true, "den": true, "ter": true,
	"te": true, "von": true, "la": true, "le": true, "di": true,
	"da": true, "el": true, "bin": true, "al": true,
}

// containerMarkers identify team sections by class or id attribute.
var containerMarkers = []string{
	"team", "leadership", "people", "staff", "management",
	"founders", "bestuur", "medewerkers", "employees",
}

// People extracts person mentions from a page using three strategies and
// returns their union, deduplicated on folded name.
func People(page model.CrawledPage) []model.Person {
	var all []model.Person
	all = append(all, structuralPeople(page.HTML)...)
	all = append(all, textualPeople(page.Text)...)
	all = append(all, structuredDataPeople(page.HTML)...)
	return mergePeople(nil, all)
}

// structuralPeople walks team containers in the markup, pairing heading-like
// name nodes with nearby title text and profile links.
func structuralPeople(rawHTML string) []model.Person {
	if rawHTML == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var people []model.Person
	var findContainers func(n *html.Node)
	findContainers = func(n *html.Node) {
		if n.Type == html.ElementNode && attrMatches(n, containerMarkers) {
			people = append(people, peopleInContainer(n)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findContainers(c)
		}
	}
	findContainers(doc)
	return people
}

func peopleInContainer(container *html.Node) []model.Person {
	var people []model.Person
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isNameNode(n) {
			name := collapsedText(n)
			if LooksLikePersonName(name) {
				people = append(people, model.Person{
					Name:        name,
					Title:       titleNear(n),
					LinkedInURL: profileLinkNear(n),
					Confidence:  model.ConfidenceHigh,
					Source:      sourceStructural,
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return people
}

func isNameNode(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Strong, atom.B:
		return true
	}
	return attrMatches(n, []string{"name"})
}

// titleNear looks for a job title in the siblings right after a name node,
// then in the parent's next sibling.
func titleNear(name *html.Node) string {
	for sib := name.NextSibling; sib != nil; sib = sib.NextSibling {
		if t := collapsedText(sib); LooksLikeTitle(t) {
			return t
		}
	}
	if name.Parent != nil {
		for sib := name.Parent.NextSibling; sib != nil; sib = sib.NextSibling {
			if t := collapsedText(sib); LooksLikeTitle(t) {
				return t
			}
		}
	}
	return ""
}

// profileLinkNear searches the name node's card for a personal LinkedIn link.
func profileLinkNear(name *html.Node) string {
	card := name.Parent
	if card == nil {
		return ""
	}
	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, a := range n.Attr {
				if a.Key == "href" && strings.Contains(strings.ToLower(a.Val), "linkedin.com/in/") {
					found = a.Val
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(card)
	return found
}

func attrMatches(n *html.Node, markers []string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" && a.Key != "id" {
			continue
		}
		val := strings.ToLower(a.Val)
		for _, m := range markers {
			if strings.Contains(val, m) {
				return true
			}
		}
	}
	return false
}

func collapsedText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// pairSeparators split "name, title" lines. The dash forms cover hyphen,
// en dash, and em dash as typically typeset.
var pairSeparators = []string{" - ", " – ", " — ", " | ", ", "}

// textualPeople scans line-structured text for name and title pairs, either
// on one line split by a separator or on two adjacent lines.
func textualPeople(text string) []model.Person {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}

	var people []model.Person
	for i, line := range lines {
		if line == "" {
			continue
		}
		if p, ok := splitNameTitle(line); ok {
			people = append(people, p)
			continue
		}
		if LooksLikePersonName(line) && i+1 < len(lines) && LooksLikeTitle(lines[i+1]) {
			people = append(people, model.Person{
				Name:       line,
				Title:      lines[i+1],
				Confidence: model.ConfidenceHigh,
				Source:     sourceTextual,
			})
		}
	}
	return people
}

func splitNameTitle(line string) (model.Person, bool) {
	for _, sep := range pairSeparators {
		name, title, ok := strings.Cut(line, sep)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		title = strings.TrimSpace(title)
		if LooksLikePersonName(name) && LooksLikeTitle(title) {
			return model.Person{
				Name:       name,
				Title:      title,
				Confidence: model.ConfidenceHigh,
				Source:     sourceTextual,
			}, true
		}
	}
	return model.Person{}, false
}

var ldJSONRe = regexp.MustCompile(`(?is)<script[^>]+type=["']application/ld\+json["'][^>]*>(.*?)</script>`)

// structuredDataPeople reads Person entities out of JSON-LD blocks,
// including those nested in @graph or organization membership arrays.
// Malformed JSON is skipped.
func structuredDataPeople(rawHTML string) []model.Person {
	var people []model.Person
	for _, m := range ldJSONRe.FindAllStringSubmatch(rawHTML, -1) {
		var doc any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err != nil {
			continue
		}
		people = append(people, personsInLD(doc)...)
	}
	return people
}

func personsInLD(doc any) []model.Person {
	var people []model.Person
	switch v := doc.(type) {
	case []any:
		for _, item := range v {
			people = append(people, personsInLD(item)...)
		}
	case map[string]any:
		if ldType(v) == "person" {
			if p, ok := personFromLD(v); ok {
				people = append(people, p)
			}
		}
		for _, val := range v {
			switch val.(type) {
			case map[string]any, []any:
				people = append(people, personsInLD(val)...)
			}
		}
	}
	return people
}

func ldType(m map[string]any) string {
	switch t := m["@type"].(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "person") {
				return "person"
			}
		}
	}
	return ""
}

func personFromLD(m map[string]any) (model.Person, bool) {
	name, _ := m["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" || !LooksLikePersonName(name) {
		return model.Person{}, false
	}
	p := model.Person{
		Name:       name,
		Confidence: model.ConfidenceHigh,
		Source:     sourceStructured,
	}
	if t, ok := m["jobTitle"].(string); ok {
		p.Title = strings.TrimSpace(t)
	}
	if e, ok := m["email"].(string); ok {
		p.Email = strings.TrimPrefix(strings.TrimSpace(e), "mailto:")
	}
	p.LinkedInURL = ldProfileLink(m)
	return p, true
}

func ldProfileLink(m map[string]any) string {
	candidates := []any{m["url"], m["sameAs"]}
	for _, c := range candidates {
		switch v := c.(type) {
		case string:
			if strings.Contains(strings.ToLower(v), "linkedin.com/in/") {
				return v
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), "linkedin.com/in/") {
					return s
				}
			}
		}
	}
	return ""
}

// LooksLikePersonName reports whether a string has the shape of a personal
// name: two to four words, capitalized except for connective particles, no
// digits, and not a known navigation phrase or job title.
func LooksLikePersonName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 5 || len(s) > 60 {
		return false
	}
	if strings.ContainsAny(s, "0123456789@:/") {
		return false
	}
	lower := strings.ToLower(s)
	for _, phrase := range phraseBlocklist {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	if LooksLikeTitle(s) {
		return false
	}

	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for i, w := range words {
		r := []rune(w)
		if !validNameWord(r) {
			return false
		}
		if unicode.IsUpper(r[0]) {
			continue
		}
		// Lowercase is only acceptable for connectives between the first
		// and last word, as in Jan van der Berg.
		if i == 0 || i == len(words)-1 || !nameConnectives[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

func validNameWord(r []rune) bool {
	for _, c := range r {
		if !unicode.IsLetter(c) && c != '.' && c != '\'' && c != '-' && c != '’' {
			return false
		}
	}
	return len(r) > 0
}

// LooksLikeTitle reports whether a string reads as a job title.
func LooksLikeTitle(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return false
	}
	lower := strings.ToLower(s)
	var tokens []string
	for _, w := range strings.Fields(lower) {
		tokens = append(tokens, strings.Trim(w, ".,;:()&/"))
	}
	for _, kw := range titleKeywords {
		if strings.Contains(kw, " ") || strings.Contains(kw, "-") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}
