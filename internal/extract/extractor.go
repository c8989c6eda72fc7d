// Package extract pulls structured contact signals out of unstructured page
// content using layered heuristics: regex passes over line-structured text,
// markup walking for names and titles, and embedded structured data. The
// strategies are independent and their results are unioned. Extraction never
// fails; malformed input degrades to whatever subset could be parsed.
package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// Extractor turns a crawled page into extracted signals.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract runs every strategy against the page and returns the union of
// their findings, deduplicated.
func (e *Extractor) Extract(page model.CrawledPage) model.ExtractedSignals {
	sig := model.ExtractedSignals{
		Emails:      Emails(page.Text, page.Links),
		Phones:      Phones(page.Text, page.Links),
		Addresses:   Addresses(page.Text),
		People:      People(page),
		SocialLinks: SocialLinks(page.Links),
	}

	switch page.Type {
	case model.PageTypeHome, model.PageTypeAbout, model.PageTypeUnknown:
		sig.Description = Description(page)
	}

	return sig
}

// Merge unions signals across pages. Order of first appearance wins, so
// passing pages in crawl order keeps homepage findings in front.
func Merge(all ...model.ExtractedSignals) model.ExtractedSignals {
	var out model.ExtractedSignals
	for _, s := range all {
		out.Emails = appendDeduped(out.Emails, s.Emails, strings.ToLower)
		out.Phones = appendDeduped(out.Phones, s.Phones, digitsOf)
		out.Addresses = appendDeduped(out.Addresses, s.Addresses, strings.ToLower)
		out.SocialLinks = appendDeduped(out.SocialLinks, s.SocialLinks, strings.ToLower)
		out.People = mergePeople(out.People, s.People)
		if out.Description == "" {
			out.Description = s.Description
		}
	}
	return out
}

// appendDeduped appends items whose key is not yet present.
func appendDeduped(dst, src []string, key func(string) string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[key(v)] = true
	}
	for _, v := range src {
		k := key(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, v)
	}
	return dst
}

// mergePeople unions people by folded name. A later duplicate can still
// enrich the kept entry with an email, title, or profile link it lacked.
func mergePeople(dst, src []model.Person) []model.Person {
	index := make(map[string]int, len(dst))
	for i, p := range dst {
		index[foldName(p.Name)] = i
	}
	for _, p := range src {
		k := foldName(p.Name)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			if dst[i].Title == "" {
				dst[i].Title = p.Title
			}
			if dst[i].Email == "" {
				dst[i].Email = p.Email
			}
			if dst[i].LinkedInURL == "" {
				dst[i].LinkedInURL = p.LinkedInURL
			}
			continue
		}
		index[k] = len(dst)
		dst = append(dst, p)
	}
	return dst
}

var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName normalizes a person name for deduplication: lowercased, diacritics
// removed, whitespace collapsed. "José Álvarez" and "Jose Alvarez" are the
// same person.
func foldName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	folded, _, err := transform.String(foldTransform, lower)
	if err != nil {
		folded = lower
	}
	return strings.Join(strings.Fields(folded), " ")
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
