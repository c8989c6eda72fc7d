package scrape

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// parsePage converts raw HTML into a title, line-structured plaintext, and
// the page's links resolved against base. Block-level elements start new
// lines so downstream extraction can reason about adjacent lines. Navigation
// and footer text is dropped from the plaintext but their links are kept,
// since contact pages are usually linked from exactly those regions.
func parsePage(body []byte, base *url.URL) (string, string, []model.Link) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", nil
	}

	var (
		title string
		text  strings.Builder
		links []model.Link
	)

	var walk func(n *html.Node, inChrome bool)
	walk = func(n *html.Node, inChrome bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Iframe, atom.Svg:
				return
			case atom.Title:
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
				return
			case atom.Nav, atom.Footer:
				inChrome = true
			case atom.A:
				if link, ok := linkOf(n, base); ok {
					links = append(links, link)
				}
			}
		}

		if n.Type == html.TextNode && !inChrome {
			if s := collapseSpace(n.Data); s != "" {
				text.WriteString(s)
				text.WriteByte(' ')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inChrome)
		}

		if n.Type == html.ElementNode && !inChrome && isBlock(n.DataAtom) {
			text.WriteByte('\n')
		}
	}
	walk(doc, false)

	return title, tidyText(text.String()), links
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Aside,
		atom.Header, atom.Li, atom.Ul, atom.Ol, atom.Table, atom.Tr, atom.Td,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Br, atom.Hr, atom.Blockquote, atom.Address, atom.Form,
		atom.Figure, atom.Figcaption, atom.Dl, atom.Dt, atom.Dd, atom.Pre:
		return true
	}
	return false
}

// linkOf extracts an anchor's resolved destination and visible text.
func linkOf(n *html.Node, base *url.URL) (model.Link, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return model.Link{}, false
	}

	resolved := href
	if base != nil && !strings.HasPrefix(href, "mailto:") && !strings.HasPrefix(href, "tel:") {
		ref, err := url.Parse(href)
		if err != nil {
			return model.Link{}, false
		}
		resolved = base.ResolveReference(ref).String()
	}

	return model.Link{URL: resolved, Text: collapseSpace(nodeText(n))}, true
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
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
	return strings.TrimSpace(b.String())
}

var (
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

// tidyText normalizes whitespace while preserving line structure.
func tidyText(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	s = blankLineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
